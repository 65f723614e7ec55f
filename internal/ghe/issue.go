package ghe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// maxLabelLength is the longest label name GitHub accepts
const maxLabelLength = 50

// Issue is a deployment report filed in a repository
type Issue struct {
	Title  string
	Body   string
	Labels []string
}

// IssueFromResult builds the report for one deployment result. The title is
// "{action} - {tenant} - {message}" and the result message doubles as label.
// Failures that never reached the target are labelled "Error: transport".
func IssueFromResult(result models.DeploymentResult) Issue {
	body := string(result.Details)
	var indented bytes.Buffer
	if err := json.Indent(&indented, result.Details, "", "\t"); err == nil {
		body = indented.String()
	}

	return Issue{
		Title:  fmt.Sprintf("%s - %s - %s", result.Action, result.Tenant, result.Message),
		Body:   body,
		Labels: []string{issueLabel(result)},
	}
}

func issueLabel(result models.DeploymentResult) string {
	if result.Failed() && result.StatusCode == 0 {
		return "Error: transport"
	}
	label := []rune(result.Message)
	if len(label) > maxLabelLength {
		label = label[:maxLabelLength]
	}
	return string(label)
}

// CreateIssue files issue in repository "org/repo" and returns its number
func (c *Client) CreateIssue(ctx context.Context, repository string, issue Issue) (int, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return 0, fmt.Errorf("invalid repository %q: expected org/repo", repository)
	}

	req := &github.IssueRequest{
		Title: github.String(issue.Title),
		Body:  github.String(issue.Body),
	}
	if len(issue.Labels) > 0 {
		labels := issue.Labels
		req.Labels = &labels
	}

	created, _, err := c.client.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return 0, fmt.Errorf("failed to create issue: %w", err)
	}

	c.log.Debugf("Created issue #%d in %s", created.GetNumber(), repository)

	return created.GetNumber(), nil
}
