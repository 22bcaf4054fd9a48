package dto

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}
