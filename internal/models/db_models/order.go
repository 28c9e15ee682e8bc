package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

// Order is one checkout attempt, keyed by the provider's order id. The only
// legal transitions are pending -> paid and pending -> failed; once paid the
// amount and payment id never change.
type Order struct {
	BaseModel
	// ProviderOrderID links the local record to the provider order and is
	// what the capture endpoint receives back after the redirect.
	ProviderOrderID string `gorm:"size:64;uniqueIndex;not null"`
	// AccountID is null for guest checkouts until capture backfills it.
	AccountID *uuid.UUID `gorm:"type:uuid;index"`
	PlanID    uuid.UUID  `gorm:"type:uuid;index"`

	AmountMinor int64  `gorm:"not null"` // 2500 = $25.00
	Currency    string `gorm:"size:3;not null"`

	Status OrderStatus `gorm:"size:16;index;not null;default:pending"`
	// ProviderPaymentID is the provider's capture id, set only on success.
	ProviderPaymentID string `gorm:"size:64"`
	// CustomerEmail lets a guest order be attributed later.
	CustomerEmail string

	// Provider payload snapshots for traceability.
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Plan Plan `gorm:"foreignKey:PlanID"`
}
