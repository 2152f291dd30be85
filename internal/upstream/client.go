package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/unisphere/exam-gateway/internal/config"
)

// Client talks to the remote exam API. It is the gateway's content provider,
// submission sink and admin CRUD transport in one. All calls carry the
// caller's opaque bearer token — the gateway holds no upstream credentials
// of its own.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient creates a Client from configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.UpstreamBaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.UpstreamTimeout},
		log:     log.With().Str("component", "upstream_client").Logger(),
	}
}

// envelope is the upstream's optional response wrapper. Some endpoints
// return `{"data": …}`, some return the payload bare; decode handles both.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do issues a JSON request and decodes the (possibly enveloped) response
// into out. A nil out discards the body. A nil body sends no payload.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.send(req, out)
}

// send executes a prepared request and decodes the response.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, errorMessage(raw))
	}

	if out == nil {
		return nil
	}
	return decode(raw, out)
}

// decode unwraps the data envelope if present, then unmarshals into out.
func decode(raw []byte, out any) error {
	payload := raw

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		payload = env.Data
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// errorMessage pulls the upstream's error message out of an error body.
func errorMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		return env.Error.Message
	}

	// Fallback for a bare {"message": …} or {"error": "…"} body.
	var loose struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &loose); err == nil {
		if loose.Message != "" {
			return loose.Message
		}
		return loose.Error
	}
	return ""
}
