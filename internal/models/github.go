package models

import "strings"

// PushEvent represents the GitHub Enterprise push webhook payload. Only the
// fields the relay consumes are decoded. Repository and Commits are pointers
// or nil-able so a missing key can be told apart from an empty one.
type PushEvent struct {
	Ref        string         `json:"ref"`
	Before     string         `json:"before"`
	After      string         `json:"after"`
	HeadCommit *CommitRecord  `json:"head_commit"`
	Repository *Repository    `json:"repository"`
	Commits    []CommitRecord `json:"commits"`
}

// CommitRecord represents one commit within a push
type CommitRecord struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Removed  []string `json:"removed"`
}

// Repository identifies the repository a push belongs to
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

// GetRepositoryName returns the full repository name
func (p PushEvent) GetRepositoryName() string {
	if p.Repository == nil {
		return ""
	}
	return p.Repository.FullName
}

// GetBranch returns the branch name without refs/heads/ prefix
func (p PushEvent) GetBranch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// GetHeadCommitID returns the head commit id, or After when the payload has
// no head_commit.
func (p PushEvent) GetHeadCommitID() string {
	if p.HeadCommit != nil && p.HeadCommit.ID != "" {
		return p.HeadCommit.ID
	}
	return p.After
}

// GetFileChangeSummary counts the paths touched across all commits
func (p PushEvent) GetFileChangeSummary() FileChangeSummary {
	var s FileChangeSummary
	for _, c := range p.Commits {
		s.TotalAdded += len(c.Added)
		s.TotalModified += len(c.Modified)
		s.TotalRemoved += len(c.Removed)
	}
	return s
}

// FileChangeSummary holds per-kind path counts for a push
type FileChangeSummary struct {
	TotalAdded    int `json:"added"`
	TotalModified int `json:"modified"`
	TotalRemoved  int `json:"removed"`
}
