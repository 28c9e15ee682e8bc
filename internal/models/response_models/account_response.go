package response_models

import "github.com/google/uuid"

type AccountResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
	Role  string    `json:"role"`
}

type TransactionResponse struct {
	ID                uuid.UUID `json:"id"`
	PlanID            uuid.UUID `json:"plan_id"`
	AmountMinor       int64     `json:"amount_minor"`
	Currency          string    `json:"currency"`
	ProviderOrderID   string    `json:"provider_order_id"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Status            string    `json:"status"`
	PaymentMethod     string    `json:"payment_method"`
	CreatedAt         int64     `json:"created_at"`
}

type ActivationResponse struct {
	ID        uuid.UUID  `json:"id"`
	ICCID     string     `json:"iccid"`
	PlanID    *uuid.UUID `json:"plan_id,omitempty"`
	Status    string     `json:"status"`
	CreatedAt int64      `json:"created_at"`
}
