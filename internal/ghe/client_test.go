package ghe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(models.Settings{GHEAddress: server.URL, GHEAccessToken: "secret-token"}, Options{}, nil)
	require.NoError(t, err)
	return client
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10.1.10.5", want: "https://10.1.10.5/"},
		{in: "ghe.example.com:8443", want: "https://ghe.example.com:8443/"},
		{in: "http://127.0.0.1:9000/ignored/path", want: "http://127.0.0.1:9000/"},
		{in: "", wantErr: true},
		{in: "https://", wantErr: true},
	}

	for _, tt := range tests {
		got, err := BaseURL(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestContentPath(t *testing.T) {
	deploy := models.ChangeAction{Kind: models.ActionDeploy, FilePath: "SERVICE_app1.json", RepositoryFullName: "org/repo"}
	assert.Equal(t, "repos/org/repo/contents/SERVICE_app1.json", ContentPath(deploy))

	del := models.ChangeAction{Kind: models.ActionDelete, FilePath: "dir/SERVICE a#1.json", RepositoryFullName: "org/repo", ReferenceCommitID: "abc123"}
	assert.Equal(t, "repos/org/repo/contents/dir/SERVICE%20a%231.json?ref=abc123", ContentPath(del))
}

func TestFetchDeclaration(t *testing.T) {
	const declaration = `{"declaration":{"acme":{"class":"Tenant"}}}`

	tests := []struct {
		name     string
		action   models.ChangeAction
		wantPath string
		wantRef  string
	}{
		{
			name:     "deploy at tip",
			action:   models.ChangeAction{Kind: models.ActionDeploy, FilePath: "SERVICE_app1.json", RepositoryFullName: "org/repo"},
			wantPath: "/api/v3/repos/org/repo/contents/SERVICE_app1.json",
		},
		{
			name:     "delete pinned to before",
			action:   models.ChangeAction{Kind: models.ActionDelete, FilePath: "SERVICE app#1.json", RepositoryFullName: "org/repo", ReferenceCommitID: "abc123"},
			wantPath: "/api/v3/repos/org/repo/contents/SERVICE app#1.json",
			wantRef:  "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var serverURL string
			mux := http.NewServeMux()
			mux.HandleFunc("/api/v3/repos/org/repo/contents/", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, tt.wantRef, r.URL.Query().Get("ref"))
				assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"name":         "SERVICE_app1.json",
					"download_url": serverURL + "/raw/org/repo/SERVICE_app1.json",
				})
			})
			mux.HandleFunc("/raw/org/repo/SERVICE_app1.json", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
				io.WriteString(w, declaration)
			})

			server := httptest.NewServer(mux)
			defer server.Close()
			serverURL = server.URL

			client, err := NewClient(models.Settings{GHEAddress: server.URL, GHEAccessToken: "secret-token"}, Options{}, nil)
			require.NoError(t, err)

			body, err := client.FetchDeclaration(context.Background(), tt.action)
			require.NoError(t, err)
			assert.JSONEq(t, declaration, string(body))
		})
	}
}

func TestFetchDeclaration_InlineContent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("declaration: {}")),
		})
	}))

	body, err := client.FetchDeclaration(context.Background(), models.ChangeAction{Kind: models.ActionDeploy, FilePath: "SERVICE_x.yaml", RepositoryFullName: "org/repo"})
	require.NoError(t, err)
	assert.Equal(t, "declaration: {}", string(body))
}

func TestFetchDeclaration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"message":"Not Found"}`)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{not json`)
			},
		},
		{
			name: "no download url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"name":"SERVICE_a.json"}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.FetchDeclaration(context.Background(), models.ChangeAction{Kind: models.ActionDeploy, FilePath: "SERVICE_a.json", RepositoryFullName: "org/repo"})
			assert.Error(t, err)
		})
	}
}

func TestCreateIssue(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v3/repos/iacorg/deployments/issues", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"number": 7}`)
	}))

	issue := IssueFromResult(models.DeploymentResult{
		Action:  models.ActionDeploy,
		Tenant:  "acme",
		Message: "success",
		Details: []byte(`{"code":200,"message":"success","tenant":"acme"}`),
	})

	number, err := client.CreateIssue(context.Background(), "iacorg/deployments", issue)
	require.NoError(t, err)
	assert.Equal(t, 7, number)

	assert.Equal(t, "deploy - acme - success", got["title"])
	assert.Equal(t, []any{"success"}, got["labels"])
	assert.Contains(t, got["body"], "\t\"tenant\": \"acme\"")
}

func TestCreateIssue_InvalidRepository(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.CreateIssue(context.Background(), "norepo", Issue{Title: "x"})
	assert.Error(t, err)
}

func TestIssueFromResult_RawDetails(t *testing.T) {
	issue := IssueFromResult(models.DeploymentResult{
		Action:  models.ActionDelete,
		Tenant:  "acme",
		Message: "Error: 422",
		Details: []byte(`declaration invalid`),
	})

	assert.Equal(t, "delete - acme - Error: 422", issue.Title)
	assert.Equal(t, "declaration invalid", issue.Body)
	assert.Equal(t, []string{"Error: 422"}, issue.Labels)
}

func TestIssueFromResult_LabelLength(t *testing.T) {
	transport := IssueFromResult(models.DeploymentResult{
		Action:  models.ActionDelete,
		Tenant:  "acme",
		Message: `Error: Delete "http://127.0.0.1:8100/mgmt/shared/appsvcs/declare/acme": dial tcp 127.0.0.1:8100: connect: connection refused`,
	})
	assert.Equal(t, []string{"Error: transport"}, transport.Labels)
	assert.Contains(t, transport.Title, "connection refused")

	long := IssueFromResult(models.DeploymentResult{
		Action:     models.ActionDeploy,
		Tenant:     "acme",
		Message:    strings.Repeat("ö", 80),
		StatusCode: 200,
	})
	require.Len(t, long.Labels, 1)
	assert.Equal(t, strings.Repeat("ö", 50), long.Labels[0])
}
