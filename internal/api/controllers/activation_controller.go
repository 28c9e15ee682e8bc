package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dynamo/internal/models/request_models"
	"dynamo/internal/services"
	"dynamo/pkg/utils"
)

type ActivationController struct {
	activationService services.ActivationServiceInterface
	logger            *zap.Logger
}

func NewActivationController(activationService services.ActivationServiceInterface, logger *zap.Logger) *ActivationController {
	return &ActivationController{
		activationService: activationService,
		logger:            logger,
	}
}

// CreateActivation godoc
// @Summary Submit a SIM activation request
// @Tags Activations
// @Accept json
// @Produce json
// @Param request body request_models.CreateActivationRequest true "Activation request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /activations [post]
func (a *ActivationController) CreateActivation(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req request_models.CreateActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	activation, err := a.activationService.CreateActivation(c.Request.Context(), accountID, req)
	if err != nil {
		utils.HandleServiceError(c, a.logger, err)
		return
	}

	utils.RespondSuccess(c, activation, "Activation request submitted")
}

// ListActivations godoc
// @Summary List the authenticated account's activation requests
// @Tags Activations
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /activations [get]
func (a *ActivationController) ListActivations(c *gin.Context) {
	accountID, ok := currentAccountID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	activations, err := a.activationService.ListActivations(c.Request.Context(), accountID)
	if err != nil {
		utils.HandleServiceError(c, a.logger, err)
		return
	}

	utils.RespondSuccess(c, activations, "")
}
