package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"dynamo/internal/models/request_models"
	"dynamo/internal/services"
	"dynamo/pkg/utils"
)

type PaymentController struct {
	paymentService services.PaymentService
	sessions       services.SessionResolver
	logger         *zap.Logger
}

func NewPaymentController(paymentService services.PaymentService, sessions services.SessionResolver, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		sessions:       sessions,
		logger:         logger,
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}

// CreateOrder godoc
// @Summary Create a checkout order for a plan
// @Description Creates a provider order and a local pending ledger entry. Works with or without authentication; guest orders are attributed at capture time.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CreateOrderRequest true "Create Order Request"
// @Success 200 {object} utils.APIResponse
// @Router /payments/create-order [post]
func (p *PaymentController) CreateOrder(c *gin.Context) {
	var request request_models.CreateOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var accountID *uuid.UUID
	if id, ok := p.sessions.Resolve(bearerToken(c)); ok {
		accountID = &id
	}

	result, err := p.paymentService.CreateOrder(c.Request.Context(), accountID, request)
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}

	utils.RespondSuccess(c, result, "Order created")
}

// CaptureOrder godoc
// @Summary Capture an approved order
// @Description Finalizes the order with the provider and records the transaction. Idempotent: repeat calls report the recorded result.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.CaptureOrderRequest true "Capture Order Request"
// @Success 200 {object} utils.APIResponse
// @Router /payments/capture-order [post]
func (p *PaymentController) CaptureOrder(c *gin.Context) {
	var request request_models.CaptureOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	// The SPA usually sends the token in the body after the redirect; a
	// plain Authorization header works too.
	token := request.SessionToken
	if token == "" {
		token = bearerToken(c)
	}

	result, err := p.paymentService.Capture(c.Request.Context(), request.OrderID, token)
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}

	utils.RespondSuccess(c, result, "Capture processed")
}

// RecoverOrder godoc
// @Summary Recover a payment that never finished reconciling
// @Description Re-runs the capture flow for a provider order id supplied by the user. Requires authentication; exactly as safe as the automatic path.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.RecoverOrderRequest true "Recover Order Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/recover [post]
func (p *PaymentController) RecoverOrder(c *gin.Context) {
	var request request_models.RecoverOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	result, err := p.paymentService.Capture(c.Request.Context(), request.OrderID, bearerToken(c))
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}

	utils.RespondSuccess(c, result, "Recovery processed")
}

// GetOrderStatus godoc
// @Summary Poll order status
// @Description Returns the local ledger status for a provider order id. Used by the post-redirect page.
// @Tags Payments
// @Produce json
// @Param orderId path string true "Provider order id"
// @Success 200 {object} utils.APIResponse
// @Router /payments/orders/{orderId} [get]
func (p *PaymentController) GetOrderStatus(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		utils.RespondError(c, http.StatusBadRequest, "orderId is required")
		return
	}

	result, err := p.paymentService.GetOrderStatus(c.Request.Context(), orderID)
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}

	utils.RespondSuccess(c, result, "")
}
