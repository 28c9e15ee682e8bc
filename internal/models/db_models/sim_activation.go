package db_models

import (
	"github.com/google/uuid"
)

type ActivationStatus string

const (
	ActivationStatusPending  ActivationStatus = "pending"
	ActivationStatusApproved ActivationStatus = "approved"
	ActivationStatusRejected ActivationStatus = "rejected"
)

// SimActivation is a customer request to activate a SIM on a plan. Review
// happens out of band; this core only records and lists requests.
type SimActivation struct {
	BaseModel
	AccountID uuid.UUID  `gorm:"type:uuid;index;not null"`
	PlanID    *uuid.UUID `gorm:"type:uuid;index"`

	ICCID  string           `gorm:"size:20;index;not null"`
	Status ActivationStatus `gorm:"size:16;index;not null;default:pending"`

	Account Account `gorm:"foreignKey:AccountID"`
}
