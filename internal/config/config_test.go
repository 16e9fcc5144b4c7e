package config

import (
	"strings"
	"testing"
	"time"
)

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	v, err := envInt("TEST_INT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	v, err := envInt("TEST_INT_MISSING", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	_, err := envInt("TEST_INT_BAD", 0)
	if err == nil {
		t.Fatal("expected error for non-integer value, got nil")
	}
	if got := err.Error(); got != `TEST_INT_BAD="abc" is not a valid integer` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "2.5")
	v, err := envFloat("TEST_FLOAT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2.5 {
		t.Fatalf("expected 2.5, got %v", v)
	}

	t.Setenv("TEST_FLOAT_BAD", "two")
	_, err = envFloat("TEST_FLOAT_BAD", 0)
	if err == nil || err.Error() != `TEST_FLOAT_BAD="two" is not a valid number` {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnvBoolValid(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	v, err := envBool("TEST_BOOL", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v {
		t.Fatal("expected true")
	}
}

func TestEnvBoolInvalid(t *testing.T) {
	t.Setenv("TEST_BOOL_BAD", "maybe")
	_, err := envBool("TEST_BOOL_BAD", false)
	if err == nil {
		t.Fatal("expected error for non-boolean value, got nil")
	}
	if got := err.Error(); got != `TEST_BOOL_BAD="maybe" is not a valid boolean` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvDurationValid(t *testing.T) {
	t.Setenv("TEST_DUR", "1800ms")
	v, err := envDuration("TEST_DUR", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1800*time.Millisecond {
		t.Fatalf("expected 1.8s, got %s", v)
	}
}

func TestEnvDurationInvalid(t *testing.T) {
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	_, err := envDuration("TEST_DUR_BAD", 0)
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if got := err.Error(); got != `TEST_DUR_BAD="five-seconds" is not a valid duration` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " https://a.example , ,https://b.example")
	got := envList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected list: %q", got)
	}
	if def := envList("TEST_LIST_MISSING", []string{"*"}); len(def) != 1 || def[0] != "*" {
		t.Fatalf("unexpected default: %q", def)
	}
}

func TestLoadFailsOnInvalidPort(t *testing.T) {
	t.Setenv("ITINERO_PORT", "abc")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with invalid ITINERO_PORT")
	}
	if got := err.Error(); !strings.Contains(got, "ITINERO_PORT") || !strings.Contains(got, "abc") {
		t.Fatalf("error should mention ITINERO_PORT and value 'abc', got: %s", got)
	}
}

func TestLoadFailsOnMultipleInvalid(t *testing.T) {
	t.Setenv("ITINERO_PORT", "abc")
	t.Setenv("ITINERO_ROUTE_TIMEOUT", "soon")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with multiple invalid vars")
	}
	got := err.Error()
	if !strings.Contains(got, "ITINERO_PORT") {
		t.Fatalf("error should mention ITINERO_PORT, got: %s", got)
	}
	if !strings.Contains(got, "ITINERO_ROUTE_TIMEOUT") {
		t.Fatalf("error should mention ITINERO_ROUTE_TIMEOUT, got: %s", got)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Port)
	}
	if cfg.RouteTimeout != 1800*time.Millisecond {
		t.Fatalf("expected default route timeout 1800ms, got %s", cfg.RouteTimeout)
	}
	if cfg.PoolLimit != 120 {
		t.Fatalf("expected default pool limit 120, got %d", cfg.PoolLimit)
	}
	if cfg.RoutingProvider != RoutingAuto {
		t.Fatalf("expected auto routing provider, got %q", cfg.RoutingProvider)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load()
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}

	cases := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"empty database url": {func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		"zero pool limit":    {func(c *Config) { c.PoolLimit = 0 }, "ITINERO_POOL_LIMIT"},
		"zero body cap":      {func(c *Config) { c.MaxRequestBodyBytes = 0 }, "ITINERO_MAX_REQUEST_BODY_BYTES"},
		"zero route timeout": {func(c *Config) { c.RouteTimeout = 0 }, "ITINERO_ROUTE_TIMEOUT"},
		"unknown provider":   {func(c *Config) { c.RoutingProvider = "osrm" }, `got "osrm"`},
		"legs without url":   {func(c *Config) { c.RoutingProvider = RoutingLegs }, "ITINERO_LEGS_URL"},
		"mapbox no token":    {func(c *Config) { c.RoutingProvider = RoutingMapbox }, "MAPBOX_TOKEN"},
		"bad rate limit":     {func(c *Config) { c.RateLimitRPS = 0 }, "ITINERO_RATE_LIMIT_RPS"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error should mention %q, got: %s", tc.want, err)
			}
		})
	}

	off := base
	off.RateLimitEnabled = false
	off.RateLimitRPS = 0
	if err := off.Validate(); err != nil {
		t.Fatalf("disabled limiter should not need params: %v", err)
	}
}

func TestResolvedRoutingProvider(t *testing.T) {
	cases := []struct {
		cfg  Config
		want string
	}{
		{Config{RoutingProvider: RoutingAuto}, RoutingNone},
		{Config{RoutingProvider: RoutingAuto, MapboxToken: "tok"}, RoutingMapbox},
		{Config{RoutingProvider: RoutingAuto, MapboxToken: "tok", LegsURL: "http://legs"}, RoutingLegs},
		{Config{RoutingProvider: RoutingMapbox, LegsURL: "http://legs"}, RoutingMapbox},
		{Config{RoutingProvider: RoutingNone, LegsURL: "http://legs"}, RoutingNone},
	}
	for _, tc := range cases {
		if got := tc.cfg.ResolvedRoutingProvider(); got != tc.want {
			t.Errorf("ResolvedRoutingProvider(%+v) = %q, want %q", tc.cfg, got, tc.want)
		}
	}
}
