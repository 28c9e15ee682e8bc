package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dynamo/internal/services"
	"dynamo/pkg/utils"
)

type PlanController struct {
	planService services.PlanServiceInterface
	logger      *zap.Logger
}

func NewPlanController(planService services.PlanServiceInterface, logger *zap.Logger) *PlanController {
	return &PlanController{
		planService: planService,
		logger:      logger,
	}
}

// ListPlans godoc
// @Summary List active wireless plans
// @Tags Plans
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /plans [get]
func (p *PlanController) ListPlans(c *gin.Context) {
	plans, err := p.planService.GetPlans(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}

	utils.RespondSuccess(c, plans, "")
}

// GetPlan godoc
// @Summary Get a plan by id
// @Tags Plans
// @Produce json
// @Param id path string true "Plan id"
// @Success 200 {object} utils.APIResponse
// @Router /plans/{id} [get]
func (p *PlanController) GetPlan(c *gin.Context) {
	planID := c.Param("id")
	if planID == "" {
		utils.RespondError(c, http.StatusBadRequest, "id is required")
		return
	}

	plan, err := p.planService.GetPlanInfoById(c.Request.Context(), planID)
	if err != nil {
		utils.HandleServiceError(c, p.logger, err)
		return
	}

	utils.RespondSuccess(c, plan, "")
}
