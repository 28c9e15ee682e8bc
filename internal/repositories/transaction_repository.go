package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dynamo/internal/infra"
	"dynamo/internal/models/db_models"
)

type TransactionRepository interface {
	// CreateIfAbsent inserts the transaction unless one already exists for
	// the same provider order id. The unique index plus ON CONFLICT DO
	// NOTHING is the actual race guard; the return value reports whether
	// this call created the row.
	CreateIfAbsent(ctx context.Context, txn *db_models.Transaction) (bool, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.Transaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) CreateIfAbsent(ctx context.Context, txn *db_models.Transaction) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_order_id"}},
			DoNothing: true,
		}).
		Create(txn)
	if res.Error != nil {
		if infra.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

func (r *transactionRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := r.db.WithContext(ctx).First(&txn, "provider_order_id = ?", providerOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &txn, nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Transaction, error) {
	var txns []db_models.Transaction
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	return txns, nil
}
