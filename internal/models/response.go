package models

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Database  bool   `json:"database"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// MessageResponse is the acknowledgement returned to webhook clients
type MessageResponse struct {
	Message string `json:"message"`
}

// StateResponse represents the listener state
type StateResponse struct {
	LastPush    *PushState         `json:"last_push,omitempty"`
	Deployments []DeploymentRecord `json:"deployments"`
}
