package jobservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/vk/flowrungo/internal/ctxlog"
)

// ErrWaitTimeout is returned by WaitForAny when wait_timeout elapsed without
// any handle reaching a terminal state. A zero timeout disables it and the
// call waits as long as the context allows.
var ErrWaitTimeout = errors.New("jobservice: timed out waiting for a job to finish")

// defaultPollInterval paces the state sweeps of WaitForAny when the caller
// does not configure one.
const defaultPollInterval = 2 * time.Second

// Config collects the settings of the HTTP client.
type Config struct {
	// BaseURL is the root of the job-execution service, without a trailing
	// slash.
	BaseURL string

	// Token, when non-empty, is sent as a bearer token on every request.
	// Acquiring it is the caller's problem.
	Token string

	// PollInterval paces WaitForAny's state sweeps.
	PollInterval time.Duration

	// WaitTimeout bounds a single WaitForAny call. Zero means no bound.
	WaitTimeout time.Duration

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// HTTPClient talks to the job-execution service over its REST API.
type HTTPClient struct {
	baseURL      string
	token        string
	pollInterval time.Duration
	waitTimeout  time.Duration
	hc           *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client from cfg, supplying a pooled transport when
// none is given.
func NewHTTPClient(cfg Config) *HTTPClient {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &HTTPClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.Token,
		pollInterval: pollInterval,
		waitTimeout:  cfg.WaitTimeout,
		hc:           hc,
	}
}

// executeRequest is the POST body of a job submission. Arguments carries the
// pre-encoded parameter object verbatim.
type executeRequest struct {
	Path      string          `json:"path"`
	Name      string          `json:"name"`
	Context   string          `json:"context,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// executeResponse is the service's acceptance of a submission.
type executeResponse struct {
	URI         string `json:"uri"`
	MonitorLink string `json:"monitorLink"`
}

// stateResponse is the service's answer to a single handle state probe.
type stateResponse struct {
	State     JobState  `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// Execute implements Client.
func (c *HTTPClient) Execute(ctx context.Context, spec ExecuteSpec) (Handle, error) {
	logger := ctxlog.FromContext(ctx)

	reqBody := executeRequest{Path: spec.Path, Name: spec.Name, Context: spec.Context}
	if spec.ParamString != "" {
		reqBody.Arguments = json.RawMessage(spec.ParamString)
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Handle{}, fmt.Errorf("encoding execute request for %s: %w", spec.Path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return Handle{}, err
	}
	requestID := xid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	c.authorize(req)

	logger.Debug("Submitting job to service.", "path", spec.Path, "name", spec.Name, "requestID", requestID)
	resp, err := c.hc.Do(req)
	if err != nil {
		return Handle{}, fmt.Errorf("executing %s: %w", spec.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Handle{}, fmt.Errorf("executing %s: service returned %s: %s",
			spec.Path, resp.Status, bodyExcerpt(resp.Body))
	}

	var accepted executeResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		return Handle{}, fmt.Errorf("decoding execute response for %s: %w", spec.Path, err)
	}
	if accepted.URI == "" {
		return Handle{}, fmt.Errorf("executing %s: service accepted the job but returned no handle URI", spec.Path)
	}

	logger.Debug("Job accepted by service.", "path", spec.Path, "uri", accepted.URI)
	return Handle{URI: accepted.URI, MonitorLink: accepted.MonitorLink}, nil
}

// WaitForAny implements Client. It sweeps the pending set at the configured
// interval and returns the first sweep that finds at least one terminal
// handle.
func (c *HTTPClient) WaitForAny(ctx context.Context, handles []string) ([]HandleStatus, error) {
	if len(handles) == 0 {
		return nil, errors.New("jobservice: WaitForAny called with no handles")
	}
	logger := ctxlog.FromContext(ctx)

	var deadline <-chan time.Time
	if c.waitTimeout > 0 {
		timer := time.NewTimer(c.waitTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		terminal, err := c.sweep(ctx, handles)
		if err != nil {
			return nil, err
		}
		if len(terminal) > 0 {
			logger.Debug("Wait sweep found terminal jobs.", "terminal", len(terminal), "pending", len(handles)-len(terminal))
			return terminal, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("%w (waited %s for %d handles)", ErrWaitTimeout, c.waitTimeout, len(handles))
		case <-ticker.C:
		}
	}
}

// sweep probes every handle once and returns those already terminal.
func (c *HTTPClient) sweep(ctx context.Context, handles []string) ([]HandleStatus, error) {
	var terminal []HandleStatus
	for _, uri := range handles {
		status, err := c.state(ctx, uri)
		if err != nil {
			return nil, err
		}
		if status.State.Terminal() {
			terminal = append(terminal, status)
		}
	}
	return terminal, nil
}

// state probes one handle's current state.
func (c *HTTPClient) state(ctx context.Context, uri string) (HandleStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+uri+"/state", nil)
	if err != nil {
		return HandleStatus{}, err
	}
	c.authorize(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return HandleStatus{}, fmt.Errorf("polling %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HandleStatus{}, fmt.Errorf("polling %s: service returned %s: %s",
			uri, resp.Status, bodyExcerpt(resp.Body))
	}

	var st stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return HandleStatus{}, fmt.Errorf("decoding state of %s: %w", uri, err)
	}
	return HandleStatus{URI: uri, State: st.State, Timestamp: st.Timestamp}, nil
}

// authorize attaches the bearer token when one is configured.
func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// bodyExcerpt reads a bounded prefix of an error response body for
// diagnostics.
func bodyExcerpt(r io.Reader) string {
	const limit = 512
	b, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil || len(b) == 0 {
		return "<no body>"
	}
	return strings.TrimSpace(string(b))
}
