package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcptransport "github.com/mark3labs/mcp-go/client/transport"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itinero-app/itinero/internal/itinerary"
	"github.com/itinero-app/itinero/internal/localstore"
	"github.com/itinero-app/itinero/internal/mcp"
	"github.com/itinero-app/itinero/internal/model"
	"github.com/itinero-app/itinero/internal/ratelimit"
	"github.com/itinero-app/itinero/internal/routing"
	"github.com/itinero-app/itinero/internal/server"
	"github.com/itinero-app/itinero/internal/testutil"
)

const previewPath = "/v1/itineraries/preview"

const validBody = `{
  "destinations": [{"name": "Accra", "lat": 5.6037, "lng": -0.187}],
  "start_date": "2025-07-20",
  "end_date": "2025-07-22",
  "budget_daily": 80,
  "currency": "USD",
  "party": {"adults": 2},
  "interests": ["museum", "food"],
  "pace": "balanced",
  "mode": "walking"
}`

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type stubGenerator struct {
	err error
}

func (s stubGenerator) Generate(context.Context, model.TripRequest) (model.Itinerary, error) {
	return model.Itinerary{}, s.err
}

// fixtureStore opens a SQLite catalog seeded with the Accra fixture.
func fixtureStore(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cat, err := localstore.LoadFixture("../localstore/testdata/accra.yaml")
	require.NoError(t, err)
	require.NoError(t, store.Seed(context.Background(), cat))
	return store
}

func fixtureEngine(t *testing.T, store *localstore.Store) *itinerary.Engine {
	t.Helper()
	engine, err := itinerary.New(itinerary.Deps{
		Places: store,
		Hours:  store,
		Rates:  store,
		Speeds: store,
		Router: routing.Unavailable{},
	}, itinerary.WithLogger(testutil.TestLogger()))
	require.NoError(t, err)
	return engine
}

// newTestServer starts an httptest server. Fields left zero in cfg get
// fixture-backed defaults.
func newTestServer(t *testing.T, cfg server.ServerConfig) *httptest.Server {
	t.Helper()
	if cfg.Engine == nil {
		store := fixtureStore(t)
		cfg.Engine = fixtureEngine(t, store)
		if cfg.Catalog == nil {
			cfg.Catalog = store
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = testutil.TestLogger()
	}
	if cfg.Version == "" {
		cfg.Version = "test"
	}
	if cfg.Routing == "" {
		cfg.Routing = "legs"
	}
	if cfg.MaxRequestBodyBytes == 0 {
		cfg.MaxRequestBodyBytes = 1 << 20
	}
	srv := httptest.NewServer(server.New(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postPreview(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest("POST", srv.URL+previewPath, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) model.APIError {
	t.Helper()
	var apiErr model.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	return apiErr
}

func TestPreview_ReturnsBareItinerary(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	resp := postPreview(t, srv, validBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &top))
	assert.Contains(t, top, "trip_summary")
	assert.Contains(t, top, "days")
	assert.NotContains(t, top, "data", "preview body must not be wrapped in the envelope")

	var it model.Itinerary
	require.NoError(t, json.Unmarshal(raw, &it))
	assert.Equal(t, 3, it.TripSummary.TotalDays)
	assert.Equal(t, "USD", it.TripSummary.Currency)
	require.Len(t, it.Days, 3)
	for _, day := range it.Days {
		assert.Len(t, day.Blocks, 3)
	}
}

func TestPreview_BadInput(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", ``, "empty"},
		{"malformed", `{"destinations":`, "malformed JSON"},
		{"unknown field", `{"destinations":[],"colour":"blue"}`, "colour"},
		{"wrong type", `{"start_date": 20250720}`, "start_date"},
		{"trailing object", `{} {}`, "single JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postPreview(t, srv, tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			apiErr := decodeError(t, resp)
			assert.Equal(t, model.ErrCodeInvalidInput, apiErr.Error.Code)
			assert.Contains(t, apiErr.Error.Message, tt.want)
		})
	}
}

func TestPreview_ValidationErrorCarriesField(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	resp := postPreview(t, srv, `{"destinations":[{"name":"Accra"}],"start_date":"2025-07-22","end_date":"2025-07-20"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	apiErr := decodeError(t, resp)
	assert.Equal(t, model.ErrCodeInvalidInput, apiErr.Error.Code)
	details, ok := apiErr.Error.Details.(map[string]any)
	require.True(t, ok, "details should be an object, got %T", apiErr.Error.Details)
	assert.Equal(t, "start_date", details["field"])
	assert.NotEmpty(t, apiErr.Meta.RequestID)
}

func TestPreview_MissingDestinations(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	resp := postPreview(t, srv, `{"destinations":[],"start_date":"2025-07-20","end_date":"2025-07-20"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	details := decodeError(t, resp).Error.Details.(map[string]any)
	assert.Equal(t, "destinations", details["field"])
}

func TestPreview_PayloadTooLarge(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{MaxRequestBodyBytes: 64})

	resp := postPreview(t, srv, validBody)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, model.ErrCodePayloadTooLarge, decodeError(t, resp).Error.Code)
}

func TestPreview_InternalErrorIsNotEchoed(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{
		Engine: stubGenerator{err: errors.New("dial tcp 10.1.2.3:5432: refused")},
	})

	resp := postPreview(t, srv, validBody)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	apiErr := decodeError(t, resp)
	assert.Equal(t, model.ErrCodeInternalError, apiErr.Error.Code)
	assert.Equal(t, "failed to build itinerary", apiErr.Error.Message)
}

func TestPreview_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	resp, err := http.Get(srv.URL + previewPath)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPreview_RateLimited(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(0.001, 2)
	t.Cleanup(func() { _ = limiter.Close() })
	srv := newTestServer(t, server.ServerConfig{Limiter: limiter})

	for i := range 2 {
		resp := postPreview(t, srv, validBody)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d within burst", i+1)
	}

	resp := postPreview(t, srv, validBody)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.Equal(t, model.ErrCodeRateLimited, decodeError(t, resp).Error.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data model.HealthResponse `json:"data"`
		Meta model.ResponseMeta   `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Data.Status)
	assert.Equal(t, "connected", body.Data.Postgres)
	assert.Equal(t, "legs", body.Data.Routing)
	assert.Equal(t, "test", body.Data.Version)
	assert.NotEmpty(t, body.Meta.RequestID)
}

func TestHealthEndpoint_States(t *testing.T) {
	tests := []struct {
		name       string
		cfg        server.ServerConfig
		wantCode   int
		wantStatus string
		wantDB     string
	}{
		{
			name:       "catalog down",
			cfg:        server.ServerConfig{Engine: stubGenerator{}, Catalog: failingPinger{}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantDB:     "disconnected",
		},
		{
			name:       "no catalog configured",
			cfg:        server.ServerConfig{Engine: stubGenerator{}},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantDB:     "not_configured",
		},
		{
			name:       "no routing provider",
			cfg:        server.ServerConfig{Engine: stubGenerator{}, Routing: "none"},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
			wantDB:     "not_configured",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.cfg)
			resp, err := http.Get(srv.URL + "/health")
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			require.Equal(t, tt.wantCode, resp.StatusCode)

			var body struct {
				Data model.HealthResponse `json:"data"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, body.Data.Status)
			assert.Equal(t, tt.wantDB, body.Data.Postgres)
		})
	}
}

func TestOpenAPISpec(t *testing.T) {
	t.Run("served", func(t *testing.T) {
		srv := newTestServer(t, server.ServerConfig{OpenAPISpec: []byte("openapi: 3.1.0\n")})
		resp, err := http.Get(srv.URL + "/openapi.yaml")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "openapi: 3.1.0\n", string(body))
	})
	t.Run("missing", func(t *testing.T) {
		srv := newTestServer(t, server.ServerConfig{})
		resp, err := http.Get(srv.URL + "/openapi.yaml")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, model.ErrCodeNotFound, decodeError(t, resp).Error.Code)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	req, _ := http.NewRequest("GET", srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "trip-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "trip-42", resp.Header.Get("X-Request-ID"))

	var body struct {
		Meta model.ResponseMeta `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "trip-42", body.Meta.RequestID)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{CORSAllowedOrigins: []string{"https://app.example.com"}})

	preflight := func(origin string) *http.Response {
		req, _ := http.NewRequest("OPTIONS", srv.URL+previewPath, nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := preflight("https://app.example.com")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	resp = preflight("https://evil.example.com")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, server.ServerConfig{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestExtraMiddlewares_FirstIsOutermost(t *testing.T) {
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Order", name)
				next.ServeHTTP(w, r)
			})
		}
	}
	srv := newTestServer(t, server.ServerConfig{
		Middlewares: []func(http.Handler) http.Handler{tag("first"), tag("second")},
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, []string{"first", "second"}, resp.Header.Values("X-Order"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), "extra middlewares wrap the request ID middleware")
}

// newMCPClient creates an MCP client connected to the test server's /mcp endpoint.
func newMCPClient(t *testing.T, srv *httptest.Server) *mcpclient.Client {
	t.Helper()
	c, err := mcpclient.NewStreamableHttpClient(
		srv.URL+"/mcp",
		mcptransport.WithHTTPHeaders(map[string]string{
			"X-Request-ID": "mcp-test",
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newMCPServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := fixtureStore(t)
	engine := fixtureEngine(t, store)
	mcpSrv := mcp.New(engine, testutil.TestLogger(), "test")
	return newTestServer(t, server.ServerConfig{
		Engine:    engine,
		Catalog:   store,
		MCPServer: mcpSrv.MCPServer(),
	})
}

func initializeMCP(t *testing.T, c *mcpclient.Client) *mcplib.InitializeResult {
	t.Helper()
	ctx := context.Background()
	initResult, err := c.Initialize(ctx, mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ClientInfo: mcplib.Implementation{Name: "test-client", Version: "1.0"},
		},
	})
	require.NoError(t, err)
	return initResult
}

func TestMCPInitialize(t *testing.T) {
	srv := newMCPServer(t)
	c := newMCPClient(t, srv)

	initResult := initializeMCP(t, c)
	assert.Equal(t, "itinero", initResult.ServerInfo.Name)
	assert.Equal(t, "test", initResult.ServerInfo.Version)
}

func TestMCPListTools(t *testing.T) {
	srv := newMCPServer(t)
	c := newMCPClient(t, srv)
	initializeMCP(t, c)

	toolsResult, err := c.ListTools(context.Background(), mcplib.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "itinero_build_itinerary")
}

func TestMCPBuildItinerary(t *testing.T) {
	srv := newMCPServer(t)
	c := newMCPClient(t, srv)
	initializeMCP(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := c.CallTool(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "itinero_build_itinerary",
			Arguments: map[string]any{"request": validBody},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)

	tc, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok)

	var it model.Itinerary
	require.NoError(t, json.Unmarshal([]byte(tc.Text), &it))
	assert.Equal(t, 3, it.TripSummary.TotalDays)

	// The same request over HTTP yields the same plan.
	resp := postPreview(t, srv, validBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var viaHTTP model.Itinerary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&viaHTTP))
	assert.Equal(t, it.Days, viaHTTP.Days)
}

func TestMCPBuildItinerary_ValidationError(t *testing.T) {
	srv := newMCPServer(t)
	c := newMCPClient(t, srv)
	initializeMCP(t, c)

	body, _ := json.Marshal(map[string]any{
		"destinations": []map[string]any{{"name": "Accra"}},
		"start_date":   "2025-07-20",
		"end_date":     "2025-07-20",
		"pace":         "frantic",
	})
	result, err := c.CallTool(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "itinero_build_itinerary",
			Arguments: map[string]any{"request": string(body)},
		},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
