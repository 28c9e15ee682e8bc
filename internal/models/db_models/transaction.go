package db_models

import (
	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TxnStatusCompleted TransactionStatus = "completed"
)

// Transaction is the durable receipt of a settled Order. The unique index on
// ProviderOrderID is the storage-level guard that makes concurrent captures
// of the same order produce exactly one row.
type Transaction struct {
	BaseModel
	AccountID uuid.UUID `gorm:"type:uuid;index;not null"`
	PlanID    uuid.UUID `gorm:"type:uuid;index"`

	AmountMinor int64  `gorm:"not null"`
	Currency    string `gorm:"size:3;not null"`

	ProviderOrderID   string `gorm:"size:64;uniqueIndex;not null"`
	ProviderPaymentID string `gorm:"size:64;index"`

	Status        TransactionStatus `gorm:"size:16;index;not null;default:completed"`
	PaymentMethod string            `gorm:"size:32"` // e.g. "paypal"

	Account Account `gorm:"foreignKey:AccountID"`
	Plan    Plan    `gorm:"foreignKey:PlanID"`
}
