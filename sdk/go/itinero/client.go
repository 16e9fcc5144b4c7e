package itinero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds the settings needed to construct a Client.
type Config struct {
	// BaseURL is the root URL of the Itinero server (e.g. "http://localhost:8080").
	BaseURL string

	// HTTPClient is an optional custom HTTP client. If nil, a default client
	// with Timeout is used.
	HTTPClient *http.Client

	// Timeout applies to individual API requests. Defaults to 30 seconds.
	Timeout time.Duration
}

// Client is an HTTP client for the Itinero API.
// All methods are safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client from the given configuration.
// Returns an error if BaseURL is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("itinero: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  httpClient,
	}, nil
}

type requestIDKey struct{}

// WithRequestID attaches a request ID that is sent as X-Request-ID. Without
// one, each call generates a fresh ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Preview builds an itinerary for req. The server does not persist it.
func (c *Client) Preview(ctx context.Context, req TripRequest) (*Itinerary, error) {
	var it Itinerary
	if err := c.post(ctx, "/v1/itineraries/preview", req, &it, false); err != nil {
		return nil, err
	}
	return &it, nil
}

// Health reports server and dependency status. A 503 is returned as an
// *Error whose message holds the raw body.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/health", &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// apiEnvelope is the server's standard success response wrapper.
type apiEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// apiErrorEnvelope is the server's standard error response wrapper.
type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func (c *Client) post(ctx context.Context, path string, body any, dest any, enveloped bool) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("itinero: marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("itinero: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(ctx, req, dest, enveloped)
}

func (c *Client) get(ctx context.Context, path string, dest any, enveloped bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("itinero: create request: %w", err)
	}

	return c.doRequest(ctx, req, dest, enveloped)
}

func (c *Client) doRequest(ctx context.Context, req *http.Request, dest any, enveloped bool) error {
	reqID, _ := ctx.Value(requestIDKey{}).(string)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("itinero: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return handleResponse(resp, dest, enveloped)
}

func handleResponse(resp *http.Response, dest any, enveloped bool) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("itinero: read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}
	if dest == nil {
		return nil
	}

	if !enveloped {
		if err := json.Unmarshal(bodyBytes, dest); err != nil {
			return fmt.Errorf("itinero: decode response: %w", err)
		}
		return nil
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		return fmt.Errorf("itinero: decode response envelope: %w", err)
	}
	if envelope.Data == nil {
		return fmt.Errorf("itinero: response envelope has no data")
	}
	return json.Unmarshal(envelope.Data, dest)
}

func parseErrorResponse(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Field = envelope.Error.Details.Field
		apiErr.RequestID = envelope.Meta.RequestID
	} else {
		apiErr.Code = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}
	return apiErr
}
