package response_models

type CreateOrderResponse struct {
	OrderID     string `json:"order_id"` // provider order id
	ApprovalURL string `json:"approval_url"`
}

// CaptureResult is returned by the capture coordinator on every invocation,
// including repeats against an already-settled order.
type CaptureResult struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"` // "paid" | "failed"
	PaymentID string `json:"payment_id,omitempty"`
	// AlreadyReconciled is true when this call observed a previously
	// settled order instead of performing the reconciliation itself.
	AlreadyReconciled bool `json:"already_reconciled"`
}

type OrderStatusResponse struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Success   bool   `json:"success"`
	PaymentID string `json:"payment_id,omitempty"`
}
