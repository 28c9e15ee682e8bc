package request_models

type CreateActivationRequest struct {
	ICCID  string `json:"iccid" binding:"required,numeric,min=19,max=20"`
	PlanID string `json:"plan_id" binding:"omitempty,uuid4"`
}
