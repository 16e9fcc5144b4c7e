package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/itinero-app/itinero/internal/model"
)

// ErrNotFound is returned when a requested catalog row does not exist.
var ErrNotFound = errors.New("storage: not found")

// SpeedKmph returns the configured travel speed for mode. ok is false when
// the mode has no row.
func (db *DB) SpeedKmph(ctx context.Context, mode model.Mode) (float64, bool, error) {
	kmph, err := db.speed(ctx, mode)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return kmph, true, nil
}

func (db *DB) speed(ctx context.Context, mode model.Mode) (float64, error) {
	var kmph float64
	err := db.pool.QueryRow(ctx,
		`SELECT km_per_hour FROM transport_speeds WHERE mode = $1`, string(mode),
	).Scan(&kmph)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("storage: query transport speed: %w", err)
	}
	return kmph, nil
}
