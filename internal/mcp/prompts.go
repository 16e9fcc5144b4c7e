package mcp

import (
	"context"
	"fmt"
	"strings"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	// plan-trip walks the assistant through gathering trip details and calling the build tool.
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt("plan-trip",
			mcplib.WithPromptDescription("Plan a multi-day trip with the itinerary builder"),
			mcplib.WithArgument("destination",
				mcplib.ArgumentDescription("Where the trip goes, e.g. Accra"),
				mcplib.RequiredArgument(),
			),
			mcplib.WithArgument("days",
				mcplib.ArgumentDescription("Trip length in days, if known"),
			),
			mcplib.WithArgument("interests",
				mcplib.ArgumentDescription("Comma-separated interests, e.g. museum,food"),
			),
		),
		s.handlePlanTripPrompt,
	)
}

func (s *Server) handlePlanTripPrompt(ctx context.Context, request mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	destination := strings.TrimSpace(request.Params.Arguments["destination"])
	if destination == "" {
		return nil, fmt.Errorf("destination argument is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I want to plan a trip to %s.", destination)
	if days := strings.TrimSpace(request.Params.Arguments["days"]); days != "" {
		fmt.Fprintf(&b, " It lasts %s days.", days)
	}
	if interests := strings.TrimSpace(request.Params.Arguments["interests"]); interests != "" {
		fmt.Fprintf(&b, " I am interested in %s.", interests)
	}
	b.WriteString(`

Before calling the tool, confirm or ask for:
- start and end dates (YYYY-MM-DD)
- the daily budget per person and its currency
- how many adults and children are travelling
- the pace (chill, balanced or packed) and how we get around (walking, driving, ...)
- anything to avoid

Then call ` + buildToolName + ` with those details, including the destination's
lat and lng if you know them. Present the result day by day: the morning,
afternoon and evening stop, the estimated cost against the budget, and the
alternatives for any block that looks over budget or far away.`)

	return &mcplib.GetPromptResult{
		Description: fmt.Sprintf("Plan a trip to %s", destination),
		Messages: []mcplib.PromptMessage{
			{
				Role: mcplib.RoleUser,
				Content: mcplib.TextContent{
					Type: "text",
					Text: b.String(),
				},
			},
		},
	}, nil
}
