package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/itinero-app/itinero/internal/model"
)

// Generator builds an itinerary for a trip request.
type Generator interface {
	Generate(ctx context.Context, req model.TripRequest) (model.Itinerary, error)
}

// Pinger reports catalog connectivity for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	engine              Generator
	catalog             Pinger
	routing             string
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64
	openapiSpec         []byte
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Catalog, OpenAPISpec.
type HandlersDeps struct {
	Engine              Generator
	Catalog             Pinger
	Routing             string // routing provider name reported by /health
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	OpenAPISpec         []byte
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		engine:              d.Engine,
		catalog:             d.Catalog,
		routing:             d.Routing,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		openapiSpec:         d.OpenAPISpec,
	}
}

// HandlePreview handles POST /v1/itineraries/preview. The 200 body is the
// itinerary itself, without the response envelope.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req model.TripRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, model.ErrCodePayloadTooLarge, err.Error())
			return
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, err.Error())
		return
	}

	it, err := h.engine.Generate(r.Context(), req)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			writeErrorDetails(w, r, http.StatusBadRequest, model.ErrCodeInvalidInput, ve.Error(),
				map[string]string{"field": ve.Field})
			return
		}
		h.logger.Error("preview: generate itinerary failed",
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "failed to build itinerary")
		return
	}

	writeRaw(w, http.StatusOK, it)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := model.HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Postgres: "connected",
		Routing:  h.routing,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	}
	status := http.StatusOK

	if h.catalog == nil {
		resp.Postgres = "not_configured"
	} else if err := h.catalog.Ping(r.Context()); err != nil {
		resp.Postgres = "disconnected"
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	if resp.Status == "healthy" && h.routing == "none" {
		resp.Status = "degraded"
	}

	writeJSON(w, r, status, resp)
}

// HandleOpenAPISpec serves the embedded OpenAPI specification.
func (h *Handlers) HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.openapiSpec) == 0 {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "openapi spec not available")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapiSpec)
}
