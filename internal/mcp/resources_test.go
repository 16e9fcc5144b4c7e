package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinero-app/itinero/internal/model"
)

func readResource(t *testing.T, handler func(context.Context, mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error), uri string) mcplib.TextResourceContents {
	t.Helper()
	contents, err := handler(context.Background(), mcplib.ReadResourceRequest{
		Params: mcplib.ReadResourceParams{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	trc, ok := contents[0].(mcplib.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, uri, trc.URI)
	assert.Equal(t, "application/json", trc.MIMEType)
	return trc
}

func TestExampleRequestResource_RoundTripsThroughTool(t *testing.T) {
	gen := &fakeGenerator{}
	s := newTestServer(t, gen)

	trc := readResource(t, s.handleExampleRequest, exampleRequestURI)

	var req model.TripRequest
	require.NoError(t, json.Unmarshal([]byte(trc.Text), &req))
	require.Len(t, req.Destinations, 1)
	assert.True(t, req.Destinations[0].HasCoords())

	result := callBuild(t, s, map[string]any{"request": trc.Text})
	require.False(t, result.IsError, parseToolText(t, result))
	assert.Equal(t, req.StartDate, gen.got.StartDate)
}

func TestExampleRequest_GeneratesWithFixtureEngine(t *testing.T) {
	engine := newFixtureEngine(t)
	it, err := engine.Generate(context.Background(), exampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, it.TripSummary.TotalDays)
}

func TestOptionsResource(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{})

	trc := readResource(t, s.handleOptions, optionsURI)

	var options map[string][]string
	require.NoError(t, json.Unmarshal([]byte(trc.Text), &options))
	assert.Equal(t, []string{"chill", "balanced", "packed"}, options["pace"])
	assert.Contains(t, options["mode"], "walking")
	assert.Equal(t, []string{"under", "balanced", "over"}, options["budget_status"])
}
