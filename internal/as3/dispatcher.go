// Package as3 applies service declarations to a BIG-IP through the AS3
// declare API.
package as3

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nahidhasan98/ghe-as3-relay/internal/declaration"
	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/logger"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// DeclarePath is the system-wide AS3 declare endpoint
const DeclarePath = "/mgmt/shared/appsvcs/declare"

// maxResponseSize caps how much of a response body is kept as details
const maxResponseSize = 1 << 20

// Config configures the dispatcher
type Config struct {
	// Host is host[:port] or a URL. Without a scheme, http is assumed, which
	// matches the on-box REST port (127.0.0.1:8100).
	Host               string
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration

	// HTTPClient overrides the client built from the fields above
	HTTPClient *http.Client

	// Observe is called after every outbound request, if set
	Observe func(method string, elapsed time.Duration)
}

// Dispatcher sends one AS3 request per call. It keeps no state between
// calls: no caching, batching or retries.
type Dispatcher struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	observe    func(string, time.Duration)
	log        *logger.Logger
}

// NewDispatcher creates a dispatcher for the configured BIG-IP
func NewDispatcher(cfg Config, log *logger.Logger) (*Dispatcher, error) {
	if log == nil {
		log = logger.Nop()
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, fmt.Errorf("as3: host is required")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("as3: invalid host %q", cfg.Host)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // BIG-IP management certs are usually self-signed
		}
		httpClient = &http.Client{Transport: transport, Timeout: cfg.Timeout}
	}

	return &Dispatcher{
		baseURL:    u.Scheme + "://" + u.Host,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		observe:    cfg.Observe,
		log:        log,
	}, nil
}

// Apply performs kind against the target. Deploy and Modify post the whole
// document to the system-wide endpoint; Delete removes the declaration's
// tenant. The tenant is resolved before anything is sent, and an error is
// returned only when no request was made. Failed requests come back as a
// result whose message starts with "Error:".
func (d *Dispatcher) Apply(ctx context.Context, kind models.ActionKind, decl *models.ServiceDeclaration) (models.DeploymentResult, error) {
	tenant, err := declaration.Tenant(decl)
	if err != nil {
		return models.DeploymentResult{Action: kind}, errors.TenantUnresolved(err)
	}

	switch kind {
	case models.ActionDeploy, models.ActionModify:
		body, err := declaration.Body(decl)
		if err != nil {
			return models.DeploymentResult{Action: kind, Tenant: tenant}, errors.DeclarationInvalid(err)
		}

		result := d.send(ctx, http.MethodPost, DeclarePath, body)
		result.Action = kind
		result.Tenant = tenant
		return result, nil

	case models.ActionDelete:
		return d.Delete(ctx, tenant), nil

	default:
		return models.DeploymentResult{Action: kind, Tenant: tenant}, errors.InvalidRequest(fmt.Sprintf("unknown action %q", kind))
	}
}

// Delete removes tenant from the target. It needs no declaration, so it can
// run on a tenant known from an earlier deployment.
func (d *Dispatcher) Delete(ctx context.Context, tenant string) models.DeploymentResult {
	result := d.send(ctx, http.MethodDelete, DeclarePath+"/"+url.PathEscape(tenant), nil)
	result.Action = models.ActionDelete
	result.Tenant = tenant
	return result
}

// send issues exactly one request and normalizes the response
func (d *Dispatcher) send(ctx context.Context, method, path string, body []byte) models.DeploymentResult {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return transportFailure(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.username != "" {
		req.SetBasicAuth(d.username, d.password)
	}

	d.log.Debugf("AS3 %s %s", method, path)

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if d.observe != nil {
		d.observe(method, time.Since(start))
	}
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return models.DeploymentResult{
			Message:    fmt.Sprintf("Error: %d", resp.StatusCode),
			Details:    rawDetails([]byte(err.Error())),
			StatusCode: resp.StatusCode,
		}
	}

	d.log.Debugf("AS3 %s %s returned %d: %s", method, path, resp.StatusCode, respBody)

	return normalize(resp.StatusCode, respBody)
}

// normalize converts a response into a result. On success the first result
// entry supplies the message and is kept whole as details.
func normalize(status int, body []byte) models.DeploymentResult {
	if status < 200 || status > 299 {
		return models.DeploymentResult{
			Message:    fmt.Sprintf("Error: %d", status),
			Details:    rawDetails(body),
			StatusCode: status,
		}
	}

	var parsed struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Results) > 0 {
		var first struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(parsed.Results[0], &first); err == nil && first.Message != "" {
			return models.DeploymentResult{
				Message:    first.Message,
				Details:    parsed.Results[0],
				StatusCode: status,
			}
		}
	}

	return models.DeploymentResult{
		Message:    fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Details:    rawDetails(body),
		StatusCode: status,
	}
}

func transportFailure(err error) models.DeploymentResult {
	return models.DeploymentResult{
		Message: "Error: " + err.Error(),
		Details: rawDetails([]byte(err.Error())),
	}
}

// rawDetails keeps JSON bodies as they are and wraps anything else in a
// JSON string
func rawDetails(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
