package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ClassTenant is the AS3 class that names the tenant of a declaration
const ClassTenant = "Tenant"

// ServiceDeclaration is the parsed content of a service definition file. Raw
// keeps the whole document so it can be forwarded unchanged.
type ServiceDeclaration struct {
	Declaration map[string]any `json:"declaration"`
	Raw         map[string]any `json:"-"`
}

// DeploymentResult is the normalized outcome of one dispatcher call. A
// Message starting with "Error:" signals failure.
type DeploymentResult struct {
	Action     ActionKind      `json:"action"`
	Tenant     string          `json:"tenant"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
	StatusCode int             `json:"status_code,omitempty"`
}

// Failed reports whether the result represents a failed call
func (r DeploymentResult) Failed() bool {
	return strings.HasPrefix(r.Message, "Error:")
}

// DeploymentRecord is a persisted deployment outcome
type DeploymentRecord struct {
	ID         int64           `json:"id"`
	Repository string          `json:"repository"`
	FilePath   string          `json:"file_path"`
	Action     ActionKind      `json:"action"`
	Tenant     string          `json:"tenant,omitempty"`
	State      ActionState     `json:"state"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// PushState is the listener state recorded for the last accepted push
type PushState struct {
	Repository     string    `json:"repository"`
	RepositoryName string    `json:"repository_name"`
	HeadCommitID   string    `json:"head_commit_id"`
	Before         string    `json:"before"`
	ReceivedAt     time.Time `json:"received_at"`
}
