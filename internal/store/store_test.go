package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "relay.db") + "?_foreign_keys=on"
	s, err := Open(context.Background(), "sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	seed := models.Settings{GHEAddress: "10.0.0.1", GHEAccessToken: "tok", Debug: true}
	got, err := s.SeedSettings(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	// A second seed does not overwrite
	got, err = s.SeedSettings(ctx, models.Settings{GHEAddress: "other"})
	require.NoError(t, err)
	assert.Equal(t, seed, got)

	updated := models.Settings{GHEAddress: "ghe.example.com", GHEAccessToken: "tok2"}
	require.NoError(t, s.SaveSettings(ctx, updated))

	got, ok, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, updated, got)
}

func TestPushState(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	last, err := s.LastPush(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.SavePushState(ctx, models.PushState{Repository: "org/repo", RepositoryName: "repo", HeadCommitID: "h1", Before: "b1", ReceivedAt: at}))
	require.NoError(t, s.SavePushState(ctx, models.PushState{Repository: "org/repo", RepositoryName: "repo", HeadCommitID: "h2", Before: "h1", ReceivedAt: at.Add(time.Minute)}))

	last, err = s.LastPush(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "h2", last.HeadCommitID)
	assert.Equal(t, "h1", last.Before)
	assert.True(t, last.ReceivedAt.Equal(at.Add(time.Minute)))
}

func TestDeployments(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	records := []models.DeploymentRecord{
		{Repository: "org/repo", FilePath: "SERVICE_a.json", Action: models.ActionDeploy, Tenant: "acme", State: models.StateSucceeded, Message: "success", Details: []byte(`{"code":200}`)},
		{Repository: "org/repo", FilePath: "SERVICE_b.json", Action: models.ActionDelete, State: models.StateFailed, Error: "fetch failed"},
		{Repository: "org/repo", FilePath: "SERVICE_a.json", Action: models.ActionModify, Tenant: "acme", State: models.StateFailed, Message: "Error: 422", Details: []byte(`"bad"`)},
	}
	for _, r := range records {
		_, err := s.RecordDeployment(ctx, r)
		require.NoError(t, err)
	}

	got, err := s.RecentDeployments(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ActionModify, got[0].Action)
	assert.Equal(t, "Error: 422", got[0].Message)
	assert.JSONEq(t, `"bad"`, string(got[0].Details))
	assert.Equal(t, models.StateFailed, got[1].State)
	assert.Equal(t, "fetch failed", got[1].Error)
	assert.Nil(t, got[1].Details)
	assert.False(t, got[1].CreatedAt.IsZero())
}

func TestDeployments_Empty(t *testing.T) {
	got, err := openTestStore(t).RecentDeployments(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTenantIndex(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.LookupTenant(ctx, "org/repo", "SERVICE_a.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetTenant(ctx, "org/repo", "SERVICE_a.json", "acme"))
	require.NoError(t, s.SetTenant(ctx, "org/repo", "SERVICE_a.json", "acme2"))

	tenant, ok, err := s.LookupTenant(ctx, "org/repo", "SERVICE_a.json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "acme2", tenant)

	_, ok, err = s.LookupTenant(ctx, "org/other", "SERVICE_a.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.ForgetTenant(ctx, "org/repo", "SERVICE_a.json"))
	_, ok, err = s.LookupTenant(ctx, "org/repo", "SERVICE_a.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPing(t *testing.T) {
	assert.NoError(t, openTestStore(t).Ping(context.Background()))
}
