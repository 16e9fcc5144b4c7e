package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/itinero-app/itinero/internal/model"
)

const (
	exampleRequestURI = "itinero://trip-request/example"
	optionsURI        = "itinero://reference/options"
)

func (s *Server) registerResources() {
	// itinero://trip-request/example: a complete request body for the build tool.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			exampleRequestURI,
			"Example Trip Request",
			mcplib.WithResourceDescription("A complete trip request accepted by the build tool and POST /v1/itineraries/preview"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleExampleRequest,
	)

	// itinero://reference/options: accepted enum values.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			optionsURI,
			"Request Options",
			mcplib.WithResourceDescription("Accepted paces, travel modes and budget statuses"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleOptions,
	)
}

func exampleRequest() model.TripRequest {
	lat, lng := 5.6037, -0.1870
	lodgeLat, lodgeLng := 5.5560, -0.1969
	budget := 80.0
	adults, children := 2, 0
	return model.TripRequest{
		Destinations: []model.Destination{{Name: "Accra", Country: "GH", Lat: &lat, Lng: &lng}},
		StartDate:    "2025-07-20",
		EndDate:      "2025-07-22",
		BudgetDaily:  &budget,
		Currency:     "USD",
		Party:        &model.Party{Adults: &adults, Children: &children},
		Interests:    []string{"museum", "food", "nightlife"},
		Pace:         model.PaceBalanced,
		Mode:         string(model.ModeWalking),
		Lodging:      &model.Lodging{Name: "Osu guesthouse", Lat: &lodgeLat, Lng: &lodgeLng},
		AvoidTags:    []string{"casino"},
	}
}

func (s *Server) handleExampleRequest(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(exampleRequest(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal example request: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleOptions(ctx context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	options := map[string][]string{
		"pace":          {string(model.PaceChill), string(model.PaceBalanced), string(model.PacePacked)},
		"mode":          {string(model.ModeWalking), string(model.ModeBicycling), string(model.ModeDriving), string(model.ModeTransit)},
		"budget_status": {string(model.BudgetUnder), string(model.BudgetBalanced), string(model.BudgetOver)},
		"blocks":        {"morning", "afternoon", "evening"},
	}
	data, err := json.MarshalIndent(options, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: marshal options: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
