package models

import "fmt"

// ActionKind is the lifecycle action derived from a changed file
type ActionKind string

const (
	ActionDeploy ActionKind = "deploy"
	ActionModify ActionKind = "modify"
	ActionDelete ActionKind = "delete"
)

// Category classifies a path by its name prefix
type Category string

const (
	CategoryService Category = "SERVICE"
	CategoryDevice  Category = "DEVICE"
	// CategoryAny is assigned when no prefix filtering is applied
	CategoryAny Category = ""
)

// ChangeAction is the unit of work derived from one changed file in one commit
type ChangeAction struct {
	Kind               ActionKind `json:"kind"`
	FilePath           string     `json:"file_path"`
	ReferenceCommitID  string     `json:"reference_commit_id,omitempty"`
	RepositoryFullName string     `json:"repository"`
	Category           Category   `json:"category,omitempty"`
}

// ContentAddress returns the GHE contents API path for the action's file.
// Deletes are pinned to the commit before the push since the blob is gone at
// the tip. The path is kept verbatim.
func (a ChangeAction) ContentAddress() string {
	addr := "/api/v3/repos/" + a.RepositoryFullName + "/contents/" + a.FilePath
	if a.Kind == ActionDelete {
		addr += "?ref=" + a.ReferenceCommitID
	}
	return addr
}

func (a ChangeAction) String() string {
	return fmt.Sprintf("%s %s", a.Kind, a.FilePath)
}

// ActionState tracks a change action through dispatch
type ActionState string

const (
	StatePending    ActionState = "pending"
	StateDispatched ActionState = "dispatched"
	StateSucceeded  ActionState = "succeeded"
	StateFailed     ActionState = "failed"
	// StateSkipped marks recognised actions that have no target, such as
	// device definitions.
	StateSkipped ActionState = "skipped"
)
