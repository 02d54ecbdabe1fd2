package handlers

// StatusResponse is the body returned by the health and readiness
// endpoints.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}
