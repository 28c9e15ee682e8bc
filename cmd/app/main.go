package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"dynamo/cmd/fx/account_fx"
	"dynamo/cmd/fx/activation_fx"
	"dynamo/cmd/fx/db_fx"
	"dynamo/cmd/fx/logger_fx"
	"dynamo/cmd/fx/notification_fx"
	"dynamo/cmd/fx/payment_fx"
	"dynamo/cmd/fx/plan_fx"
	"dynamo/internal/api/controllers"
	"dynamo/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		logger_fx.Module,
		db_fx.Module,
		notification_fx.Module,
		account_fx.Module,
		plan_fx.Module,
		payment_fx.Module,
		activation_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			go func() {
				logger.Info("starting HTTP server", zap.String("port", port))
				if err := engine.Run(":" + port); err != nil {
					logger.Fatal("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	accountController *controllers.AccountController,
	planController *controllers.PlanController,
	paymentController *controllers.PaymentController,
	activationController *controllers.ActivationController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.MetricsMiddleware())

	RegisterRoutes(r, accountController, planController, paymentController, activationController)

	return r
}

func RegisterRoutes(
	r *gin.Engine,
	accountController *controllers.AccountController,
	planController *controllers.PlanController,
	paymentController *controllers.PaymentController,
	activationController *controllers.ActivationController,
) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	accounts := r.Group("/accounts")
	accounts.POST("/register", accountController.Register)
	accounts.POST("/login", accountController.Login)
	accounts.POST("/password-reset", accountController.RequestPasswordReset)
	accounts.POST("/password-reset/confirm", accountController.ConfirmPasswordReset)
	accounts.GET("/me", middleware.JWTAuthMiddleware(), accountController.Me)
	accounts.GET("/me/transactions", middleware.JWTAuthMiddleware(), accountController.Transactions)

	plans := r.Group("/plans")
	plans.GET("", planController.ListPlans)
	plans.GET("/:id", planController.GetPlan)

	// Checkout, capture and polling stay open: a guest can buy, and a
	// capture after the provider redirect may arrive without a session.
	payments := r.Group("/payments")
	payments.POST("/create-order", paymentController.CreateOrder)
	payments.POST("/capture-order", paymentController.CaptureOrder)
	payments.GET("/orders/:orderId", paymentController.GetOrderStatus)
	payments.POST("/recover", middleware.JWTAuthMiddleware(), paymentController.RecoverOrder)

	activations := r.Group("/activations", middleware.JWTAuthMiddleware())
	activations.POST("", activationController.CreateActivation)
	activations.GET("", activationController.ListActivations)
}
