package services

import (
	"context"

	"github.com/google/uuid"

	"dynamo/internal/models/db_models"
	"dynamo/internal/models/request_models"
	"dynamo/internal/models/response_models"
	"dynamo/internal/repositories"
	"dynamo/pkg/utils"
)

type ActivationServiceInterface interface {
	CreateActivation(ctx context.Context, accountID uuid.UUID, request request_models.CreateActivationRequest) (*response_models.ActivationResponse, error)
	ListActivations(ctx context.Context, accountID uuid.UUID) ([]response_models.ActivationResponse, error)
}

type ActivationService struct {
	activationRepo repositories.ActivationRepository
	planRepo       repositories.IPlanRepository
}

func NewActivationService(activationRepo repositories.ActivationRepository, planRepo repositories.IPlanRepository) ActivationServiceInterface {
	return &ActivationService{
		activationRepo: activationRepo,
		planRepo:       planRepo,
	}
}

func (s *ActivationService) CreateActivation(ctx context.Context, accountID uuid.UUID, request request_models.CreateActivationRequest) (*response_models.ActivationResponse, error) {
	activation := &db_models.SimActivation{
		AccountID: accountID,
		ICCID:     request.ICCID,
		Status:    db_models.ActivationStatusPending,
	}

	if request.PlanID != "" {
		plan, err := s.planRepo.GetActivePlanById(ctx, request.PlanID)
		if err != nil {
			return nil, utils.ErrDatabaseError
		}
		if plan == nil {
			return nil, utils.ErrPlanNotFound
		}
		activation.PlanID = &plan.ID
	}

	if err := s.activationRepo.Insert(ctx, activation); err != nil {
		return nil, utils.ErrDatabaseError
	}

	return &response_models.ActivationResponse{
		ID:        activation.ID,
		ICCID:     activation.ICCID,
		PlanID:    activation.PlanID,
		Status:    string(activation.Status),
		CreatedAt: activation.CreatedAt,
	}, nil
}

func (s *ActivationService) ListActivations(ctx context.Context, accountID uuid.UUID) ([]response_models.ActivationResponse, error) {
	activations, err := s.activationRepo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	result := make([]response_models.ActivationResponse, 0, len(activations))
	for _, activation := range activations {
		result = append(result, response_models.ActivationResponse{
			ID:        activation.ID,
			ICCID:     activation.ICCID,
			PlanID:    activation.PlanID,
			Status:    string(activation.Status),
			CreatedAt: activation.CreatedAt,
		})
	}

	return result, nil
}
