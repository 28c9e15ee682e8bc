package payment_fx

import (
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dynamo/internal/api/controllers"
	"dynamo/internal/gateways"
	"dynamo/internal/repositories"
	"dynamo/internal/services"
)

var Module = fx.Provide(
	provideOrderRepo,
	provideTransactionRepo,
	provideGateway,
	provideSessionResolver,
	providePaymentService,
	providePaymentController,
)

func provideOrderRepo(db *gorm.DB) repositories.OrderRepository {
	return repositories.NewOrderRepository(db)
}

func provideTransactionRepo(db *gorm.DB) repositories.TransactionRepository {
	return repositories.NewTransactionRepository(db)
}

func provideGateway(logger *zap.Logger) (gateways.PaymentGateway, error) {
	cfg := gateways.PayPalConfig{
		ClientID:  os.Getenv("PAYPAL_CLIENT_ID"),
		Secret:    os.Getenv("PAYPAL_SECRET"),
		Live:      os.Getenv("PAYPAL_ENV") == "live",
		BrandName: os.Getenv("PAYPAL_BRAND_NAME"),
	}
	return gateways.NewPayPalGateway(cfg, logger)
}

func provideSessionResolver(logger *zap.Logger) services.SessionResolver {
	return services.NewJWTSessionResolver(logger)
}

func providePaymentService(
	orders repositories.OrderRepository,
	txns repositories.TransactionRepository,
	plans repositories.IPlanRepository,
	gateway gateways.PaymentGateway,
	sessions services.SessionResolver,
	notifier services.NotificationPublisher,
	logger *zap.Logger,
) services.PaymentService {
	return services.NewPaymentService(orders, txns, plans, gateway, sessions, notifier, logger)
}

func providePaymentController(paymentService services.PaymentService, sessions services.SessionResolver, logger *zap.Logger) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService, sessions, logger)
}
