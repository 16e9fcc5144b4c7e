// Package lookupcache caches slow-changing catalog lookups in memory.
package lookupcache

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/itinero-app/itinero/internal/model"
)

// SpeedSource is the uncached transport-speed lookup.
type SpeedSource interface {
	SpeedKmph(ctx context.Context, mode model.Mode) (float64, bool, error)
}

type speedEntry struct {
	kmph float64
	ok   bool
}

// Speeds caches SpeedSource results per mode for a fixed TTL. Missing modes
// are cached too. Errors are not.
type Speeds struct {
	src   SpeedSource
	cache *cache.Cache
}

// NewSpeeds wraps src. A non-positive ttl disables caching.
func NewSpeeds(src SpeedSource, ttl time.Duration) *Speeds {
	if ttl <= 0 {
		return &Speeds{src: src}
	}
	return &Speeds{src: src, cache: cache.New(ttl, 2*ttl)}
}

// SpeedKmph returns the cached speed for mode, reading through on a miss.
func (s *Speeds) SpeedKmph(ctx context.Context, mode model.Mode) (float64, bool, error) {
	if s.cache == nil {
		return s.src.SpeedKmph(ctx, mode)
	}
	key := string(mode)
	if v, found := s.cache.Get(key); found {
		e := v.(speedEntry)
		return e.kmph, e.ok, nil
	}
	kmph, ok, err := s.src.SpeedKmph(ctx, mode)
	if err != nil {
		return 0, false, err
	}
	s.cache.Set(key, speedEntry{kmph: kmph, ok: ok}, cache.DefaultExpiration)
	return kmph, ok, nil
}
