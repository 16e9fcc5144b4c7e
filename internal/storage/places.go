package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/itinero-app/itinero/internal/model"
)

const placeColumns = `id, name, lat, lng, category, tags, popularity, cost_typical, cost_currency, description`

// NearbyPlaces returns catalog rows inside q.Bound (all rows when the bound
// is nil), ordered by popularity descending with nulls last, then id.
// A zero limit returns every matching row.
func (db *DB) NearbyPlaces(ctx context.Context, q model.PlaceQuery) ([]model.Place, error) {
	var (
		where []string
		args  []any
	)
	if b := q.Bound; b != nil {
		args = append(args, b.Min.Lat(), b.Max.Lat(), b.Min.Lon(), b.Max.Lon())
		where = append(where, "lat BETWEEN $1 AND $2", "lng BETWEEN $3 AND $4")
	}

	query := `SELECT ` + placeColumns + ` FROM places`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY popularity DESC NULLS LAST, id"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: query places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		var p model.Place
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Lat, &p.Lng, &p.Category, &p.Tags,
			&p.Popularity, &p.CostTypical, &p.CostCurrency, &p.Description,
		); err != nil {
			return nil, fmt.Errorf("storage: scan place: %w", err)
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate places: %w", err)
	}
	return places, nil
}
