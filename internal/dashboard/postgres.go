package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresWarehouse queries the consumption schema populated by the ETL.
type PostgresWarehouse struct {
	db *sql.DB
}

// OpenPostgres connects with the pgx driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresWarehouse, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect warehouse: %w", err)
	}
	return NewPostgresWarehouse(db), nil
}

// NewPostgresWarehouse wraps an open database handle.
func NewPostgresWarehouse(db *sql.DB) *PostgresWarehouse {
	return &PostgresWarehouse{db: db}
}

// Close releases the connection pool.
func (w *PostgresWarehouse) Close() error {
	return w.db.Close()
}

// Cities lists every city with aggregated measurements.
func (w *PostgresWarehouse) Cities(ctx context.Context) ([]string, error) {
	const query = `
		SELECT city FROM consumption.conditions_fact_day_agg
		GROUP BY city
		ORDER BY 1 DESC`

	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

// Dates lists the measurement dates available for a city, newest first.
func (w *PostgresWarehouse) Dates(ctx context.Context, city string) ([]string, error) {
	const query = `
		SELECT measurement_date
		FROM consumption.conditions_fact_day_agg
		WHERE city = $1
		GROUP BY measurement_date
		ORDER BY 1 DESC`

	rows, err := w.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("query dates for %s: %w", city, err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d.Format(time.DateOnly))
	}
	return dates, rows.Err()
}

// Trend returns hourly averages for the selected pollutants (all when empty).
func (w *PostgresWarehouse) Trend(ctx context.Context, city, date string, pollutants []Pollutant) ([]TrendPoint, error) {
	if len(pollutants) == 0 {
		pollutants = AllPollutants
	}
	cols := make([]string, 0, len(pollutants))
	for _, p := range pollutants {
		col, err := p.Column()
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, p)
		}
		cols = append(cols, col)
	}

	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	// Column names come from the fixed whitelist above; values are bound.
	query := fmt.Sprintf(`
		SELECT EXTRACT(HOUR FROM measurement_time)::int AS hour, %s
		FROM consumption.conditions_fact_day_agg
		WHERE city = $1
			AND measurement_date = $2
		ORDER BY measurement_time`, strings.Join(cols, ", "))

	rows, err := w.db.QueryContext(ctx, query, city, day)
	if err != nil {
		return nil, fmt.Errorf("query trend for %s on %s: %w", city, date, err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var hour int
		values := make([]sql.NullFloat64, len(pollutants))
		dest := make([]any, 0, len(pollutants)+1)
		dest = append(dest, &hour)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}

		point := TrendPoint{Hour: hour, Values: make(map[Pollutant]*float64, len(pollutants))}
		for i, p := range pollutants {
			if values[i].Valid {
				v := values[i].Float64
				point.Values[p] = &v
			} else {
				point.Values[p] = nil
			}
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

// AQIMap returns every location with its AQI for the most recent date key.
func (w *PostgresWarehouse) AQIMap(ctx context.Context) ([]MapPoint, error) {
	const query = `
		SELECT l.lat, l.lon, f.aqi
		FROM consumption.conditions_fact f
		INNER JOIN consumption.location_dim l
			ON f.location_fk = l.location_pk
		WHERE f.date_fk = (
			SELECT date_pk FROM consumption.date_dim
			ORDER BY date_pk DESC
			LIMIT 1
		)`

	rows, err := w.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query aqi map: %w", err)
	}
	defer rows.Close()

	var points []MapPoint
	for rows.Next() {
		var (
			p   MapPoint
			aqi sql.NullInt64
		)
		if err := rows.Scan(&p.Lat, &p.Lon, &aqi); err != nil {
			return nil, fmt.Errorf("scan aqi point: %w", err)
		}
		if aqi.Valid {
			v := int(aqi.Int64)
			p.AQI = &v
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// CityLocations returns the distinct measurement locations of a city.
func (w *PostgresWarehouse) CityLocations(ctx context.Context, city string) ([]MapPoint, error) {
	const query = `
		SELECT DISTINCT l.lat, l.lon
		FROM consumption.conditions_fact f
		INNER JOIN consumption.location_dim l
			ON f.location_fk = l.location_pk
		WHERE l.city = $1`

	rows, err := w.db.QueryContext(ctx, query, city)
	if err != nil {
		return nil, fmt.Errorf("query locations for %s: %w", city, err)
	}
	defer rows.Close()

	var points []MapPoint
	for rows.Next() {
		var p MapPoint
		if err := rows.Scan(&p.Lat, &p.Lon); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
