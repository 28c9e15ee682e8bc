package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dynamo/internal/models/db_models"
)

type OrderRepository interface {
	Insert(ctx context.Context, order *db_models.Order) error
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.Order, error)
	// MarkCaptured flips a pending order to paid, records the provider
	// payment id and optionally backfills the owner. Returns false when no
	// pending row matched, i.e. another call settled the order first.
	MarkCaptured(ctx context.Context, providerOrderID string, accountID *uuid.UUID, paymentID string) (bool, error)
	MarkFailed(ctx context.Context, providerOrderID string) (bool, error)
	// BackfillOwner attributes an ownerless order to an account. Used by
	// the recovery path when a guest order is replayed while authenticated.
	BackfillOwner(ctx context.Context, providerOrderID string, accountID uuid.UUID) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Insert(ctx context.Context, order *db_models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.Order, error) {
	var order db_models.Order
	err := r.db.WithContext(ctx).First(&order, "provider_order_id = ?", providerOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) MarkCaptured(ctx context.Context, providerOrderID string, accountID *uuid.UUID, paymentID string) (bool, error) {
	updates := map[string]interface{}{
		"status":              db_models.OrderStatusPaid,
		"provider_payment_id": paymentID,
	}
	if accountID != nil {
		updates["account_id"] = *accountID
	}

	// The status guard makes the terminal transition single-shot under
	// concurrent captures of the same order.
	res := r.db.WithContext(ctx).
		Model(&db_models.Order{}).
		Where("provider_order_id = ? AND status = ?", providerOrderID, db_models.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (r *orderRepository) BackfillOwner(ctx context.Context, providerOrderID string, accountID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&db_models.Order{}).
		Where("provider_order_id = ? AND account_id IS NULL", providerOrderID).
		Update("account_id", accountID).Error
}

func (r *orderRepository) MarkFailed(ctx context.Context, providerOrderID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db_models.Order{}).
		Where("provider_order_id = ? AND status = ?", providerOrderID, db_models.OrderStatusPending).
		Update("status", db_models.OrderStatusFailed)
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}
