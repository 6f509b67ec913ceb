package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Endpoint paths exposed by the remote inventory API.
const (
	InfoPath       = "/api/InventoryApi/info"
	AggregatedPath = "/api/InventoryApi/aggregated"
	ItemsPath      = "/api/InventoryApi/items"
)

// Timeouts per spec: short for metadata calls, longer for the bulk item
// fetch. Calls are never retried automatically.
const (
	metadataTimeout = 10 * time.Second
	bulkTimeout     = 30 * time.Second
)

// Severity classifies the outcome of one fetch step so the orchestrator can
// branch explicitly instead of interpreting generic errors.
type Severity int

const (
	// SeverityOK means the payload was fetched and decoded.
	SeverityOK Severity = iota
	// SeveritySoft means the step failed but the sync may continue
	// (best-effort steps such as the aggregated fetch).
	SeveritySoft
	// SeverityHard means the operation must abort and surface the error.
	SeverityHard
)

// Result describes the outcome of one fetch step.
type Result struct {
	Step       string
	Severity   Severity
	StatusCode int
	// Err is the transport or decode error, when one occurred.
	Err error
	// Diagnostic carries the remote response text for non-200 answers so
	// operators see what the server actually said.
	Diagnostic string
}

// OK reports whether the step succeeded.
func (r Result) OK() bool {
	return r.Severity == SeverityOK
}

// Failure folds the result into a single error for surfacing to callers.
// It returns nil for successful results.
func (r Result) Failure() error {
	if r.OK() {
		return nil
	}
	if r.Err != nil {
		return fmt.Errorf("%s: %w", r.Step, r.Err)
	}
	if r.Diagnostic != "" {
		return fmt.Errorf("%s: status %d: %s", r.Step, r.StatusCode, r.Diagnostic)
	}
	return fmt.Errorf("%s: status %d", r.Step, r.StatusCode)
}

// Client talks to one remote inventory API. It is cheap to construct and
// bound to a single source's URL, token and TLS preference.
type Client struct {
	baseURL  string
	token    string
	logger   *zap.Logger
	metadata *http.Client
	bulk     *http.Client
}

// New creates a client for the given base URL and token. insecureTLS
// disables certificate verification for local or self-signed endpoints.
func New(baseURL, token string, insecureTLS bool, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   metadataTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: metadataTimeout,
	}
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		logger:   logger,
		metadata: &http.Client{Transport: transport, Timeout: metadataTimeout},
		bulk:     &http.Client{Transport: transport, Timeout: bulkTimeout},
	}
}

// FetchInfo retrieves the source's basic metadata. A failure is always hard:
// the sync cannot proceed without it.
func (c *Client) FetchInfo(ctx context.Context) (map[string]any, Result) {
	body, res := c.get(ctx, c.metadata, InfoPath, "info", SeverityHard)
	if !res.OK() {
		return nil, res
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		res.Severity = SeverityHard
		res.Err = fmt.Errorf("parse response: %w", err)
		return nil, res
	}
	return payload, res
}

// FetchAggregated retrieves the schema and statistics payload. Failures are
// soft: the sync continues with whatever schema already exists.
func (c *Client) FetchAggregated(ctx context.Context) (map[string]any, Result) {
	body, res := c.get(ctx, c.metadata, AggregatedPath, "aggregated", SeveritySoft)
	if !res.OK() {
		return nil, res
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		res.Severity = SeveritySoft
		res.Err = fmt.Errorf("parse response: %w", err)
		return nil, res
	}
	return payload, res
}

// FetchItems retrieves the item records. A failure is hard for the import
// operation. Array entries that are not JSON objects are dropped.
func (c *Client) FetchItems(ctx context.Context) ([]map[string]any, Result) {
	body, res := c.get(ctx, c.bulk, ItemsPath, "items", SeverityHard)
	if !res.OK() {
		return nil, res
	}
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		res.Severity = SeverityHard
		res.Err = fmt.Errorf("parse response: %w", err)
		return nil, res
	}
	items := make([]map[string]any, 0, len(raw))
	for _, entry := range raw {
		if obj, ok := entry.(map[string]any); ok {
			items = append(items, obj)
		}
	}
	return items, res
}

// get performs one GET with the token as a query parameter and classifies
// the outcome with failSeverity on error.
func (c *Client) get(ctx context.Context, httpc *http.Client, path, step string, failSeverity Severity) ([]byte, Result) {
	res := Result{Step: step, Severity: SeverityOK}

	u := c.baseURL + path
	if c.token != "" {
		u += "?" + url.Values{"token": {c.token}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		res.Severity = failSeverity
		res.Err = err
		return nil, res
	}

	resp, err := httpc.Do(req)
	if err != nil {
		res.Severity = failSeverity
		res.Err = err
		return nil, res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Severity = failSeverity
		res.Err = fmt.Errorf("read response: %w", err)
		return nil, res
	}

	if resp.StatusCode != http.StatusOK {
		res.Severity = failSeverity
		res.Diagnostic = strings.TrimSpace(string(body))
		c.logger.Warn("remote call returned non-200",
			zap.String("step", step),
			zap.Int("status", resp.StatusCode))
		return nil, res
	}

	return body, res
}
