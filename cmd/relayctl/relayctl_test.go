package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/ghe-as3-relay/internal/config"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
	"github.com/nahidhasan98/ghe-as3-relay/internal/store"
)

const pushPayload = `{
  "ref": "refs/heads/main",
  "before": "aaa111",
  "after": "bbb222",
  "repository": {"name": "iac", "full_name": "netops/iac"},
  "commits": [
    {
      "id": "bbb222",
      "added": ["SERVICES/web.json", "apps/SERVICE_misc.json", "README.md"],
      "modified": ["DEVICE_lb01.json"],
      "removed": ["SERVICE_old.json"]
    }
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRunActions_PrefixPolicy(t *testing.T) {
	payload := writeFile(t, "push.json", pushPayload)

	var out bytes.Buffer
	require.NoError(t, runActions(&out, payload, config.PathPolicyPrefix))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ADDRESS")
	assert.Contains(t, lines[1], "/api/v3/repos/netops/iac/contents/SERVICES/web.json")
	assert.Contains(t, lines[2], "DEVICE")
	assert.Contains(t, lines[3], "/api/v3/repos/netops/iac/contents/SERVICE_old.json?ref=aaa111")
	assert.NotContains(t, out.String(), "README.md")
	assert.NotContains(t, out.String(), "apps/SERVICE_misc.json")
}

func TestRunActions_AllPolicy(t *testing.T) {
	payload := writeFile(t, "push.json", pushPayload)

	var out bytes.Buffer
	require.NoError(t, runActions(&out, payload, config.PathPolicyAll))

	assert.Contains(t, out.String(), "README.md")
}

func TestRunActions_Errors(t *testing.T) {
	var out bytes.Buffer

	assert.ErrorContains(t, runActions(&out, "unused", "suffix"), "unknown policy")
	assert.ErrorContains(t, runActions(&out, filepath.Join(t.TempDir(), "missing.json"), config.PathPolicyAll), "failed to read payload")

	bad := writeFile(t, "bad.json", `{"commits": [}`)
	assert.ErrorContains(t, runActions(&out, bad, config.PathPolicyAll), "failed to decode payload")

	noRepo := writeFile(t, "norepo.json", `{"commits": []}`)
	assert.Error(t, runActions(&out, noRepo, config.PathPolicyAll))
}

func TestRunTenant(t *testing.T) {
	decl := writeFile(t, "SERVICE_web.json", `{
  "class": "AS3",
  "declaration": {
    "class": "ADC",
    "schemaVersion": "3.0.0",
    "web_tenant": {"class": "Tenant"}
  }
}`)

	var out bytes.Buffer
	require.NoError(t, runTenant(&out, decl))
	assert.Equal(t, "web_tenant\n", out.String())
}

func TestRunTenant_NoTenant(t *testing.T) {
	decl := writeFile(t, "SERVICE_empty.yaml", "declaration:\n  class: ADC\n")

	var out bytes.Buffer
	assert.Error(t, runTenant(&out, decl))
	assert.Empty(t, out.String())
}

func TestRunHistory(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "relay.db")

	st, err := store.Open(ctx, "sqlite3", dsn)
	require.NoError(t, err)
	require.NoError(t, st.SavePushState(ctx, models.PushState{
		Repository:   "netops/iac",
		HeadCommitID: "bbb222",
		ReceivedAt:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}))
	_, err = st.RecordDeployment(ctx, models.DeploymentRecord{
		Repository: "netops/iac",
		FilePath:   "SERVICES/web.json",
		Action:     models.ActionDeploy,
		Tenant:     "web_tenant",
		State:      models.StateSucceeded,
		Message:    "success",
		CreatedAt:  time.Date(2026, 5, 1, 0, 0, 1, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	var out bytes.Buffer
	require.NoError(t, runHistory(ctx, &out, dsn, 10))

	assert.Contains(t, out.String(), "last push: netops/iac bbb222 at 2026-05-01T00:00:00Z")
	assert.Contains(t, out.String(), "web_tenant")
	assert.Contains(t, out.String(), "succeeded")
}

func TestRunHistory_InvalidLimit(t *testing.T) {
	assert.ErrorContains(t, runHistory(context.Background(), &bytes.Buffer{}, "file::memory:", 0), "limit must be positive")
}
