package storage

import (
	"context"
	"fmt"

	"github.com/itinero-app/itinero/internal/model"
)

// OpeningHours returns the weekly opening windows for placeIDs. Places with
// no rows are absent from the result.
func (db *DB) OpeningHours(ctx context.Context, placeIDs []string) (map[string]model.WeeklyHours, error) {
	out := make(map[string]model.WeeklyHours, len(placeIDs))
	if len(placeIDs) == 0 {
		return out, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT place_id, dow, open_min, close_min FROM place_hours WHERE place_id = ANY($1)`,
		placeIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: query place hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			dow int
			win model.OpeningWindow
		)
		if err := rows.Scan(&id, &dow, &win.Open, &win.Close); err != nil {
			return nil, fmt.Errorf("storage: scan place hours: %w", err)
		}
		if out[id] == nil {
			out[id] = model.WeeklyHours{}
		}
		out[id][dow] = win
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate place hours: %w", err)
	}
	return out, nil
}
