package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// ProbeLine is one endpoint check within a connection test.
type ProbeLine struct {
	Endpoint   string `json:"endpoint"`
	WithToken  bool   `json:"with_token"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	OK         bool   `json:"ok"`
}

// ProbeReport is the diagnostic result of a connection test.
type ProbeReport struct {
	BaseURL string      `json:"base_url"`
	Lines   []ProbeLine `json:"lines"`
	// Reachable is true when at least one authenticated call returned 200.
	Reachable bool `json:"reachable"`
}

// Probe checks the known endpoints with and without the token and reports
// per-endpoint status. It never fails: every outcome, including transport
// errors, becomes a report line.
func (c *Client) Probe(ctx context.Context) ProbeReport {
	report := ProbeReport{BaseURL: c.baseURL}

	for _, path := range []string{InfoPath, AggregatedPath, ItemsPath} {
		report.Lines = append(report.Lines, c.probeOne(ctx, path, false))

		line := c.probeOne(ctx, path, true)
		if line.OK {
			report.Reachable = true
		}
		report.Lines = append(report.Lines, line)
	}

	return report
}

func (c *Client) probeOne(ctx context.Context, path string, withToken bool) ProbeLine {
	line := ProbeLine{Endpoint: path, WithToken: withToken}

	u := c.baseURL + path
	if withToken && c.token != "" {
		u += "?" + url.Values{"token": {c.token}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		line.Error = err.Error()
		return line
	}
	resp, err := c.metadata.Do(req)
	if err != nil {
		line.Error = err.Error()
		return line
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	line.StatusCode = resp.StatusCode
	line.OK = resp.StatusCode == http.StatusOK
	return line
}
