package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/itinero-app/itinero/internal/model"
)

const (
	seedRetries   = 3
	seedBaseDelay = 50 * time.Millisecond
)

// Seed upserts every row of cat in one transaction. A place's opening
// hours are replaced wholesale. Serialization conflicts are retried.
func (db *DB) Seed(ctx context.Context, cat model.Catalog) error {
	return WithRetry(ctx, seedRetries, seedBaseDelay, func() error {
		return pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
			return seedTx(ctx, tx, cat)
		})
	})
}

func seedTx(ctx context.Context, tx pgx.Tx, cat model.Catalog) error {
	batch := &pgx.Batch{}
	for _, cp := range cat.Places {
		p := cp.Place
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		batch.Queue(
			`INSERT INTO places (`+placeColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (id) DO UPDATE SET
			   name = EXCLUDED.name, lat = EXCLUDED.lat, lng = EXCLUDED.lng,
			   category = EXCLUDED.category, tags = EXCLUDED.tags,
			   popularity = EXCLUDED.popularity, cost_typical = EXCLUDED.cost_typical,
			   cost_currency = EXCLUDED.cost_currency, description = EXCLUDED.description`,
			p.ID, p.Name, p.Lat, p.Lng, p.Category, tags,
			p.Popularity, p.CostTypical, p.CostCurrency, p.Description,
		)
		batch.Queue(`DELETE FROM place_hours WHERE place_id = $1`, p.ID)
		for dow, win := range cp.Hours {
			batch.Queue(
				`INSERT INTO place_hours (place_id, dow, open_min, close_min) VALUES ($1, $2, $3, $4)`,
				p.ID, dow, win.Open, win.Close,
			)
		}
	}
	for _, r := range cat.Rates {
		batch.Queue(
			`INSERT INTO fx_rates (base_currency, quote_currency, rate) VALUES ($1, $2, $3)
			 ON CONFLICT (base_currency, quote_currency) DO UPDATE SET rate = EXCLUDED.rate, updated_at = now()`,
			r.Base, r.Quote, r.Rate,
		)
	}
	for mode, kmph := range cat.Speeds {
		batch.Queue(
			`INSERT INTO transport_speeds (mode, km_per_hour) VALUES ($1, $2)
			 ON CONFLICT (mode) DO UPDATE SET km_per_hour = EXCLUDED.km_per_hour`,
			string(mode), kmph,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("storage: seed catalog: %w", err)
	}
	return nil
}
