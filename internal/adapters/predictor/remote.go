package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/medcost/internal/domain/estimator"
)

const defaultRemoteTimeout = 2 * time.Second

// RemoteClient scores records against an HTTP endpoint that accepts
// {"instances":[features]} and answers {"predictions":[value]}.
type RemoteClient struct {
	endpoint string
	client   *http.Client
}

type remoteRequest struct {
	Instances []estimator.Features `json:"instances"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
}

// RemoteOption configures a RemoteClient.
type RemoteOption func(*RemoteClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteClient) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteClient) {
		if d > 0 {
			r.client.Timeout = d
		}
	}
}

// NewRemoteClient validates endpoint and builds a client for it.
func NewRemoteClient(endpoint string, opts ...RemoteOption) (*RemoteClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad predictor url: %w", ErrInvalidModel, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: predictor url %q must be absolute http(s)", ErrInvalidModel, endpoint)
	}
	c := &RemoteClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: defaultRemoteTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the scoring URL.
func (c *RemoteClient) Endpoint() string { return c.endpoint }

// Predict implements estimator.Predictor.
func (c *RemoteClient) Predict(ctx context.Context, f estimator.Features) (float64, error) {
	body, err := json.Marshal(remoteRequest{Instances: []estimator.Features{f}})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal predictor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create predictor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: request: %w", ErrRemote, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrRemote, resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %w", ErrRemote, err)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("%w: got %d predictions for one instance", ErrRemote, len(out.Predictions))
	}
	return out.Predictions[0], nil
}
