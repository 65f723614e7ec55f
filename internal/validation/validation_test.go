package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

func TestValidatePushEvent(t *testing.T) {
	v := New()
	repo := &models.Repository{Name: "repo", FullName: "org/repo"}

	tests := []struct {
		name    string
		ev      *models.PushEvent
		wantErr bool
	}{
		{name: "nil", ev: nil, wantErr: true},
		{name: "missing repository", ev: &models.PushEvent{Commits: []models.CommitRecord{}}, wantErr: true},
		{name: "missing commits", ev: &models.PushEvent{Repository: repo}, wantErr: true},
		{name: "empty full name", ev: &models.PushEvent{Repository: &models.Repository{}, Commits: []models.CommitRecord{}}, wantErr: true},
		{name: "empty commits", ev: &models.PushEvent{Repository: repo, Commits: []models.CommitRecord{}}},
		{
			name:    "removal without before",
			ev:      &models.PushEvent{Repository: repo, Commits: []models.CommitRecord{{Removed: []string{"SERVICE_a.json"}}}},
			wantErr: true,
		},
		{
			name: "removal with before",
			ev:   &models.PushEvent{Before: "abc", Repository: repo, Commits: []models.CommitRecord{{Removed: []string{"SERVICE_a.json"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePushEvent(tt.ev)
			if !tt.wantErr {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, errors.ErrCodeMalformedPayload, err.Code)
		})
	}
}

func TestValidateSettings(t *testing.T) {
	v := New()

	assert.NotNil(t, v.ValidateSettings(nil))
	assert.NotNil(t, v.ValidateSettings(&models.SettingsRequest{}))
	assert.NotNil(t, v.ValidateSettings(&models.SettingsRequest{Config: &models.Settings{GHEAccessToken: "t"}}))
	assert.NotNil(t, v.ValidateSettings(&models.SettingsRequest{Config: &models.Settings{GHEAddress: "10.0.0.1"}}))
	assert.Nil(t, v.ValidateSettings(&models.SettingsRequest{Config: &models.Settings{GHEAddress: "10.0.0.1", GHEAccessToken: "t"}}))
}

func TestIsValidHost(t *testing.T) {
	v := New()

	for _, h := range []string{"10.0.0.1", "ghe.example.com", "ghe.example.com:8443", "https://ghe.example.com", "[::1]:443"} {
		assert.True(t, v.IsValidHost(h), h)
	}
	for _, h := range []string{"", "ghe example", "ftp://ghe", "ghe/path", "https://"} {
		assert.False(t, v.IsValidHost(h), h)
	}
}
