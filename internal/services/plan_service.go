package services

import (
	"context"

	"dynamo/internal/models/response_models"
	"dynamo/internal/repositories"
	"dynamo/pkg/utils"
)

type PlanServiceInterface interface {
	GetPlans(ctx context.Context) ([]response_models.PlanResponse, error)
	GetPlanInfoById(ctx context.Context, planID string) (*response_models.PlanResponse, error)
}

type PlanService struct {
	planRepo repositories.IPlanRepository
}

func NewPlanService(planRepo repositories.IPlanRepository) PlanServiceInterface {
	return &PlanService{planRepo: planRepo}
}

func (p *PlanService) GetPlans(ctx context.Context) ([]response_models.PlanResponse, error) {
	plans, err := p.planRepo.GetAllActivePlans(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	result := make([]response_models.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		result = append(result, response_models.PlanResponse{
			ID:          plan.ID,
			Code:        plan.Code,
			Name:        plan.Name,
			Description: plan.Description,
			PriceMinor:  plan.PriceMinor,
			Currency:    plan.Currency,
			DataMB:      plan.DataMB,
			Minutes:     plan.Minutes,
			IsActive:    plan.IsActive,
		})
	}

	return result, nil
}

func (p *PlanService) GetPlanInfoById(ctx context.Context, planID string) (*response_models.PlanResponse, error) {
	plan, err := p.planRepo.GetPlanInfoById(ctx, planID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}

	return &response_models.PlanResponse{
		ID:          plan.ID,
		Code:        plan.Code,
		Name:        plan.Name,
		Description: plan.Description,
		PriceMinor:  plan.PriceMinor,
		Currency:    plan.Currency,
		DataMB:      plan.DataMB,
		Minutes:     plan.Minutes,
		IsActive:    plan.IsActive,
	}, nil
}
