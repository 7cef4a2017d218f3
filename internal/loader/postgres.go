package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/portomove/wcoroute/internal/geo"
	"github.com/portomove/wcoroute/internal/model"
)

// NewPool opens a connection pool against databaseURL, sized the same
// conservative way the archival worker sizes its own pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return pool, nil
}

// LoadLocations reads every location row for the given disposal
// schedule frequency from Postgres, an alternative to LoadCSV backed by
// persisted data rather than a per-schedule file.
func LoadLocations(ctx context.Context, pool *pgxpool.Pool, disposalSchedule int) ([]model.Location, error) {
	rows, err := pool.Query(ctx,
		`SELECT name, latitude, longitude, wco_amount, disposal_schedule
		 FROM wco_locations
		 WHERE disposal_schedule = $1
		 ORDER BY name ASC`,
		disposalSchedule)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []model.Location
	for rows.Next() {
		var name string
		var lat, lon, wco float64
		var schedule int
		if err := rows.Scan(&name, &lat, &lon, &wco, &schedule); err != nil {
			return nil, fmt.Errorf("scan location row: %w", err)
		}
		out = append(out, model.Location{
			ID:               model.NewLocationID(),
			Name:             name,
			Coordinates:      geo.Coordinate{Lat: lat, Lon: lon},
			WCOAmount:        wco,
			DisposalSchedule: schedule,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate location rows: %w", err)
	}
	return out, nil
}
