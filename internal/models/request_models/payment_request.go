package request_models

type CreateOrderRequest struct {
	PlanID string `json:"plan_id" binding:"required,uuid4"`
	// Amount is what the client displayed to the user. It is validated
	// against the stored plan price, never trusted.
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,len=3"`
	ReturnURL     string  `json:"return_url" binding:"required,url"`
	CancelURL     string  `json:"cancel_url" binding:"required,url"`
	CustomerEmail string  `json:"customer_email" binding:"omitempty,email"`
}

type CaptureOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	// SessionToken is optional: capture must work for guest orders and for
	// sessions that did not survive the provider redirect.
	SessionToken string `json:"session_token"`
}

type RecoverOrderRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}
