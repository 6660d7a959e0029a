package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"vasafe/backend/internal/config"
	"vasafe/backend/internal/domain"
)

// TimescaleStore persists classified readings and answers the history
// window queries the evaluator runs on. Absent optional fields are
// stored as SQL NULL, never coerced to zero.
type TimescaleStore struct {
	pool *pgxpool.Pool
}

func NewTimescaleStore(ctx context.Context, cfg *config.Config) (*TimescaleStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &TimescaleStore{pool: pool}, nil
}

func (s *TimescaleStore) Close() {
	s.pool.Close()
}

func (s *TimescaleStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertReading writes one classified reading. Writes happen strictly
// in arrival order per lot — the ingest loop is the only writer and it
// blocks on this call.
func (s *TimescaleStore) InsertReading(ctx context.Context, r *domain.Reading) error {
	query := `
		INSERT INTO lot_telemetry
			(timestamp, received_at, lot_id, temperature, lid_open,
			 violation, battery_pct, light_raw, send_kind, raw_payload)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var kind *string
	if r.Kind != "" {
		k := string(r.Kind)
		kind = &k
	}

	_, err := s.pool.Exec(
		ctx,
		query,
		r.Timestamp,
		r.ReceivedAt,
		r.LotID,
		r.Temperature,
		r.LidOpen,
		r.Violation,
		r.Battery,
		r.Light,
		kind,
		string(r.RawPayload),
	)
	if err != nil {
		return fmt.Errorf("insert reading for %s: %w", r.LotID, err)
	}
	return nil
}

// ReadWindow returns up to limit readings for one lot within the
// lookback period, newest first. An empty slice is a valid result and
// means the lot has not reported inside the window.
func (s *TimescaleStore) ReadWindow(ctx context.Context, lotID string, lookback time.Duration, limit int) ([]*domain.Reading, error) {
	query := `
		SELECT timestamp, received_at, lot_id, temperature, lid_open,
		       violation, battery_pct, light_raw, send_kind
		FROM lot_telemetry
		WHERE lot_id = $1
		  AND timestamp > NOW() - $2::interval
		ORDER BY timestamp DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, lotID, lookback, limit)
	if err != nil {
		return nil, fmt.Errorf("query window for %s: %w", lotID, err)
	}
	defer rows.Close()

	var window []*domain.Reading
	for rows.Next() {
		r := &domain.Reading{}
		var kind *string
		err := rows.Scan(
			&r.Timestamp,
			&r.ReceivedAt,
			&r.LotID,
			&r.Temperature,
			&r.LidOpen,
			&r.Violation,
			&r.Battery,
			&r.Light,
			&kind,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reading for %s: %w", lotID, err)
		}
		if kind != nil {
			r.Kind = domain.SendKind(*kind)
		}
		window = append(window, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate window for %s: %w", lotID, err)
	}

	return window, nil
}

// InsertAlert records one violation alert for the audit trail.
func (s *TimescaleStore) InsertAlert(ctx context.Context, lotID, alertCode string, temperature float64) error {
	query := `
		INSERT INTO lot_alerts
			(lot_id, alert_code, temperature, created_at)
		VALUES
			($1, $2, $3, NOW())
		ON CONFLICT DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, lotID, alertCode, temperature)
	return err
}
