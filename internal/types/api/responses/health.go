package responses

// HealthResponse represents the liveness check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status  string `json:"status"`
	ChainID string `json:"chain_id,omitempty"`
	Relayer string `json:"relayer,omitempty"`
	Error   string `json:"error,omitempty"`
}
