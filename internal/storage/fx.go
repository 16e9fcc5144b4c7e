package storage

import (
	"context"
	"fmt"
)

// Rates returns base->quote rates for every base in bases that has a row.
func (db *DB) Rates(ctx context.Context, quote string, bases []string) (map[string]float64, error) {
	out := make(map[string]float64, len(bases))
	if len(bases) == 0 {
		return out, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT base_currency, rate FROM fx_rates
		 WHERE quote_currency = $1 AND base_currency = ANY($2)`,
		quote, bases,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: query fx rates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			base string
			rate float64
		)
		if err := rows.Scan(&base, &rate); err != nil {
			return nil, fmt.Errorf("storage: scan fx rate: %w", err)
		}
		out[base] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: iterate fx rates: %w", err)
	}
	return out, nil
}
