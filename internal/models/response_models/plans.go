package response_models

import "github.com/google/uuid"

type PlanResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	PriceMinor  int64     `json:"price_minor"`
	Currency    string    `json:"currency"`
	DataMB      int64     `json:"data_mb"`
	Minutes     int64     `json:"minutes"`
	IsActive    bool      `json:"is_active"`
}
