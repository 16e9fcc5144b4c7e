// Package localstore is a single-file SQLite catalog. It implements the same
// read interfaces as the PostgreSQL catalog and is used by itinctl and by
// engine tests that run without Docker.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/itinero-app/itinero/internal/model"
)

// schemaVersion is the latest schema version. Bump it when adding migrations.
const schemaVersion = 1

// Store is a SQLite-backed catalog.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path and applies
// pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("localstore: create directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("localstore: open: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks that the database file is readable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("localstore: read user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS places (
		  id            TEXT PRIMARY KEY,
		  name          TEXT NOT NULL,
		  lat           REAL,
		  lng           REAL,
		  category      TEXT,
		  tags_json     TEXT NOT NULL DEFAULT '[]',
		  popularity    REAL,
		  cost_typical  REAL,
		  cost_currency TEXT,
		  description   TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_places_lat_lng ON places(lat, lng);

		CREATE TABLE IF NOT EXISTS place_hours (
		  place_id  TEXT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
		  dow       INTEGER NOT NULL CHECK (dow BETWEEN 0 AND 6),
		  open_min  INTEGER NOT NULL,
		  close_min INTEGER NOT NULL,
		  PRIMARY KEY (place_id, dow)
		);

		CREATE TABLE IF NOT EXISTS fx_rates (
		  base_currency  TEXT NOT NULL,
		  quote_currency TEXT NOT NULL,
		  rate           REAL NOT NULL CHECK (rate > 0),
		  PRIMARY KEY (base_currency, quote_currency)
		);

		CREATE TABLE IF NOT EXISTS transport_speeds (
		  mode        TEXT PRIMARY KEY,
		  km_per_hour REAL NOT NULL CHECK (km_per_hour > 0)
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("localstore: migration 1: %w", err)
		}
	}

	if version < schemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
			return fmt.Errorf("localstore: set user_version: %w", err)
		}
	}
	return nil
}

// NearbyPlaces returns rows inside q.Bound (all rows when nil), ordered by
// popularity descending with nulls last, then id.
func (s *Store) NearbyPlaces(ctx context.Context, q model.PlaceQuery) ([]model.Place, error) {
	query := `SELECT id, name, lat, lng, category, tags_json, popularity, cost_typical, cost_currency, description
		FROM places`
	var args []any
	if b := q.Bound; b != nil {
		query += ` WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?`
		args = append(args, b.Min.Lat(), b.Max.Lat(), b.Min.Lon(), b.Max.Lon())
	}
	query += ` ORDER BY popularity DESC NULLS LAST, id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("localstore: query places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		var (
			p        model.Place
			tagsJSON string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Lat, &p.Lng, &p.Category, &tagsJSON,
			&p.Popularity, &p.CostTypical, &p.CostCurrency, &p.Description); err != nil {
			return nil, fmt.Errorf("localstore: scan place: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &p.Tags); err != nil {
			return nil, fmt.Errorf("localstore: decode tags for %s: %w", p.ID, err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("localstore: iterate places: %w", err)
	}
	return places, nil
}

// OpeningHours returns weekly windows for placeIDs. Places with no rows are
// absent from the result.
func (s *Store) OpeningHours(ctx context.Context, placeIDs []string) (map[string]model.WeeklyHours, error) {
	out := make(map[string]model.WeeklyHours, len(placeIDs))
	if len(placeIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT place_id, dow, open_min, close_min FROM place_hours WHERE place_id IN (`+
			placeholders(len(placeIDs))+`)`,
		anySlice(placeIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("localstore: query place hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			dow int
			win model.OpeningWindow
		)
		if err := rows.Scan(&id, &dow, &win.Open, &win.Close); err != nil {
			return nil, fmt.Errorf("localstore: scan place hours: %w", err)
		}
		if out[id] == nil {
			out[id] = model.WeeklyHours{}
		}
		out[id][dow] = win
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("localstore: iterate place hours: %w", err)
	}
	return out, nil
}

// Rates returns base->quote rates for the bases that have a row.
func (s *Store) Rates(ctx context.Context, quote string, bases []string) (map[string]float64, error) {
	out := make(map[string]float64, len(bases))
	if len(bases) == 0 {
		return out, nil
	}

	args := append([]any{quote}, anySlice(bases)...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT base_currency, rate FROM fx_rates WHERE quote_currency = ? AND base_currency IN (`+
			placeholders(len(bases))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("localstore: query fx rates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			base string
			rate float64
		)
		if err := rows.Scan(&base, &rate); err != nil {
			return nil, fmt.Errorf("localstore: scan fx rate: %w", err)
		}
		out[base] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("localstore: iterate fx rates: %w", err)
	}
	return out, nil
}

// SpeedKmph returns the configured speed for mode. ok is false when the
// mode has no row.
func (s *Store) SpeedKmph(ctx context.Context, mode model.Mode) (float64, bool, error) {
	var kmph float64
	err := s.db.QueryRowContext(ctx,
		`SELECT km_per_hour FROM transport_speeds WHERE mode = ?`, string(mode),
	).Scan(&kmph)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("localstore: query transport speed: %w", err)
	}
	return kmph, true, nil
}

// Seed upserts every row of cat in one transaction. A place's opening hours
// are replaced wholesale.
func (s *Store) Seed(ctx context.Context, cat model.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("localstore: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, cp := range cat.Places {
		p := cp.Place
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		tagsJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("localstore: encode tags for %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO places (id, name, lat, lng, category, tags_json, popularity, cost_typical, cost_currency, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   name = excluded.name, lat = excluded.lat, lng = excluded.lng,
			   category = excluded.category, tags_json = excluded.tags_json,
			   popularity = excluded.popularity, cost_typical = excluded.cost_typical,
			   cost_currency = excluded.cost_currency, description = excluded.description`,
			p.ID, p.Name, p.Lat, p.Lng, p.Category, string(tagsJSON),
			p.Popularity, p.CostTypical, p.CostCurrency, p.Description,
		); err != nil {
			return fmt.Errorf("localstore: upsert place %s: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM place_hours WHERE place_id = ?`, p.ID); err != nil {
			return fmt.Errorf("localstore: clear hours for %s: %w", p.ID, err)
		}
		for dow, win := range cp.Hours {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO place_hours (place_id, dow, open_min, close_min) VALUES (?, ?, ?, ?)`,
				p.ID, dow, win.Open, win.Close,
			); err != nil {
				return fmt.Errorf("localstore: insert hours for %s: %w", p.ID, err)
			}
		}
	}

	for _, r := range cat.Rates {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fx_rates (base_currency, quote_currency, rate) VALUES (?, ?, ?)
			 ON CONFLICT (base_currency, quote_currency) DO UPDATE SET rate = excluded.rate`,
			r.Base, r.Quote, r.Rate,
		); err != nil {
			return fmt.Errorf("localstore: upsert fx rate %s/%s: %w", r.Base, r.Quote, err)
		}
	}

	for mode, kmph := range cat.Speeds {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transport_speeds (mode, km_per_hour) VALUES (?, ?)
			 ON CONFLICT (mode) DO UPDATE SET km_per_hour = excluded.km_per_hour`,
			string(mode), kmph,
		); err != nil {
			return fmt.Errorf("localstore: upsert speed %s: %w", mode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("localstore: commit seed: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
