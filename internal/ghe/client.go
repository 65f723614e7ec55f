// Package ghe talks to the GitHub Enterprise REST API through go-github.
package ghe

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/nahidhasan98/ghe-as3-relay/internal/logger"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// Options configures transport details that do not come from settings
type Options struct {
	InsecureSkipVerify bool
	Timeout            time.Duration
	HTTPClient         *http.Client // overrides the above when set
}

// Client is a GitHub Enterprise client bound to one set of settings
type Client struct {
	client *github.Client
	log    *logger.Logger
}

// NewClient creates a client for the GHE instance named in settings. The
// address may be a bare host or IP, with or without port, or a full URL.
func NewClient(settings models.Settings, opts Options, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}

	base, err := BaseURL(settings.GHEAddress)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // appliances often run self-signed certs
		}
		httpClient = &http.Client{Transport: transport, Timeout: opts.Timeout}
	}

	gh := github.NewClient(httpClient)
	if settings.GHEAccessToken != "" {
		gh = gh.WithAuthToken(settings.GHEAccessToken)
	}

	gh, err = gh.WithEnterpriseURLs(base, base)
	if err != nil {
		return nil, fmt.Errorf("failed to configure enterprise URLs: %w", err)
	}

	return &Client{client: gh, log: log}, nil
}

// BaseURL turns a GHE address into the root URL of the instance
func BaseURL(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("GHE address is required")
	}

	if !strings.Contains(address, "://") {
		address = "https://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("invalid GHE address %q: %w", address, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid GHE address %q: missing host", address)
	}

	return u.Scheme + "://" + u.Host + "/", nil
}

// ContentPath returns the contents API request path for an action, relative
// to the API root. Path segments are escaped for transport only, so the
// server sees the file path exactly as it appears in the push.
func ContentPath(action models.ChangeAction) string {
	segments := strings.Split(action.FilePath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	p := "repos/" + action.RepositoryFullName + "/contents/" + strings.Join(segments, "/")
	if action.Kind == models.ActionDelete {
		p += "?" + url.Values{"ref": {action.ReferenceCommitID}}.Encode()
	}
	return p
}

// FetchDeclaration resolves the action's content address and downloads the
// raw file it points at.
func (c *Client) FetchDeclaration(ctx context.Context, action models.ChangeAction) ([]byte, error) {
	c.log.Debugf("Fetching content metadata from %s", action.ContentAddress())

	req, err := c.client.NewRequest(http.MethodGet, ContentPath(action), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build content request: %w", err)
	}

	content := new(github.RepositoryContent)
	if _, err := c.client.Do(ctx, req, content); err != nil {
		return nil, fmt.Errorf("failed to get content metadata: %w", err)
	}

	downloadURL := content.GetDownloadURL()
	if downloadURL == "" {
		// Small files may carry their content inline
		if raw, err := content.GetContent(); err == nil && raw != "" {
			return []byte(raw), nil
		}
		return nil, fmt.Errorf("content response for %s has no download_url", action.FilePath)
	}

	c.log.Debugf("Retrieved download_url: %s", downloadURL)

	return c.download(ctx, downloadURL)
}

func (c *Client) download(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := c.client.NewRequest(http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.raw")

	var buf bytes.Buffer
	if _, err := c.client.Do(ctx, req, &buf); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", downloadURL, err)
	}

	return buf.Bytes(), nil
}

