package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/itinero-app/itinero/internal/ctxutil"
	"github.com/itinero-app/itinero/internal/model"
)

const buildToolName = "itinero_build_itinerary"

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcplib.NewTool(buildToolName,
			mcplib.WithDescription(`Build a day-by-day travel itinerary.

Each day has three blocks (morning, afternoon, evening) with a chosen place,
up to three alternatives, an estimated cost in the requested currency and
travel minutes between stops. Days carry a budget status (under, balanced,
over) and an encoded route polyline.

Pass either a full trip request as JSON in "request", or the flat fields
below for a single-destination trip. "request" wins when both are given.

EXAMPLE: destination="Accra", lat=5.6037, lng=-0.187, start_date="2025-07-20",
end_date="2025-07-22", budget_daily=80, currency="USD", adults=2,
interests="museum,food,nightlife", pace="balanced", mode="walking"`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithOpenWorldHintAnnotation(true),
			mcplib.WithString("request",
				mcplib.Description("Complete trip request as a JSON object string, same shape as POST /v1/itineraries/preview"),
			),
			mcplib.WithString("destination", mcplib.Description("Destination name, e.g. Accra")),
			mcplib.WithNumber("lat", mcplib.Description("Destination latitude"), mcplib.Min(-90), mcplib.Max(90)),
			mcplib.WithNumber("lng", mcplib.Description("Destination longitude"), mcplib.Min(-180), mcplib.Max(180)),
			mcplib.WithString("start_date", mcplib.Description("First day, YYYY-MM-DD")),
			mcplib.WithString("end_date", mcplib.Description("Last day, YYYY-MM-DD (inclusive)")),
			mcplib.WithNumber("budget_daily", mcplib.Description("Budget per person per day in the display currency"), mcplib.Min(0)),
			mcplib.WithString("currency", mcplib.Description("Display currency ISO code, default USD")),
			mcplib.WithNumber("adults", mcplib.Description("Number of adults, default 1"), mcplib.Min(0)),
			mcplib.WithNumber("children", mcplib.Description("Number of children, default 0"), mcplib.Min(0)),
			mcplib.WithString("interests", mcplib.Description("Comma-separated interests, e.g. museum,food")),
			mcplib.WithString("avoid_tags", mcplib.Description("Comma-separated tags or categories to exclude")),
			mcplib.WithString("pace",
				mcplib.Description("Trip pace"),
				mcplib.Enum(string(model.PaceChill), string(model.PaceBalanced), string(model.PacePacked)),
			),
			mcplib.WithString("mode", mcplib.Description("Travel mode: walking, bicycling, driving or transit")),
			mcplib.WithBoolean("debug", mcplib.Description("Include the scoring trace")),
		),
		s.handleBuildItinerary,
	)
}

func (s *Server) handleBuildItinerary(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	req, err := tripRequestFromArgs(request)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	it, err := s.engine.Generate(ctx, req)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			return errorResult(ve.Error()), nil
		}
		s.logger.Error("mcp: build itinerary failed",
			"error", err,
			"request_id", ctxutil.RequestIDFromContext(ctx),
		)
		return errorResult("failed to build itinerary"), nil
	}

	data, err := json.Marshal(it)
	if err != nil {
		return errorResult(fmt.Sprintf("encode itinerary: %v", err)), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

// tripRequestFromArgs builds a TripRequest from the "request" JSON argument
// or, when absent, from the flat fields.
func tripRequestFromArgs(request mcplib.CallToolRequest) (model.TripRequest, error) {
	var req model.TripRequest
	if raw := strings.TrimSpace(request.GetString("request", "")); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return model.TripRequest{}, fmt.Errorf("invalid request JSON: %v", err)
		}
		return req, nil
	}

	args := request.GetArguments()
	dest := model.Destination{Name: request.GetString("destination", "")}
	if _, ok := args["lat"]; ok {
		lat := request.GetFloat("lat", 0)
		dest.Lat = &lat
	}
	if _, ok := args["lng"]; ok {
		lng := request.GetFloat("lng", 0)
		dest.Lng = &lng
	}
	if dest.Name != "" || dest.HasCoords() {
		req.Destinations = []model.Destination{dest}
	}

	req.StartDate = request.GetString("start_date", "")
	req.EndDate = request.GetString("end_date", "")
	req.Currency = request.GetString("currency", "")
	req.Pace = model.Pace(request.GetString("pace", ""))
	req.Mode = request.GetString("mode", "")
	req.Interests = splitList(request.GetString("interests", ""))
	req.AvoidTags = splitList(request.GetString("avoid_tags", ""))
	req.Debug = request.GetBool("debug", false)

	if _, ok := args["budget_daily"]; ok {
		b := request.GetFloat("budget_daily", 0)
		req.BudgetDaily = &b
	}
	_, hasAdults := args["adults"]
	_, hasChildren := args["children"]
	if hasAdults || hasChildren {
		req.Party = &model.Party{}
		if hasAdults {
			a := request.GetInt("adults", 1)
			req.Party.Adults = &a
		}
		if hasChildren {
			c := request.GetInt("children", 0)
			req.Party.Children = &c
		}
	}
	return req, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
