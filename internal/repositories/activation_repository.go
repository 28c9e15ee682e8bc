package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dynamo/internal/models/db_models"
)

type ActivationRepository interface {
	Insert(ctx context.Context, activation *db_models.SimActivation) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.SimActivation, error)
}

type activationRepository struct {
	db *gorm.DB
}

func NewActivationRepository(db *gorm.DB) ActivationRepository {
	return &activationRepository{db: db}
}

func (r *activationRepository) Insert(ctx context.Context, activation *db_models.SimActivation) error {
	return r.db.WithContext(ctx).Create(activation).Error
}

func (r *activationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.SimActivation, error) {
	var activations []db_models.SimActivation
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&activations).Error
	if err != nil {
		return nil, err
	}

	return activations, nil
}
