package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LegsClient calls an HTTP legs service that accepts a Request body and
// answers with ordered points, legs and a polyline.
type LegsClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewLegsClient creates a client for the legs service at url. apiKey, when
// set, is sent as both the apikey header and a bearer token.
func NewLegsClient(url, apiKey string) *LegsClient {
	return &LegsClient{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type legsResponse struct {
	OrderedPoints []Point `json:"ordered_points"`
	Legs          []Leg   `json:"legs"`
	Polyline6     string  `json:"polyline6"`
	Polyline      string  `json:"polyline"`
}

// Route posts req to the legs service.
func (c *LegsClient) Route(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("legs: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("legs: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("apikey", c.apiKey)
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("legs: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Response{}, fmt.Errorf("legs: status %d: %s", resp.StatusCode, string(msg))
	}

	var result legsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Response{}, fmt.Errorf("legs: decode response: %w", err)
	}

	out := Response{
		OrderedPoints: result.OrderedPoints,
		Legs:          result.Legs,
		Polyline:      result.Polyline,
		Precision:     5,
	}
	if result.Polyline6 != "" {
		out.Polyline = result.Polyline6
		out.Precision = 6
	}
	return out, nil
}
