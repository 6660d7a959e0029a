package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		getEnv("DB_USER", "vasafe_user"),
		getEnv("DB_PASSWORD", "vasafe_password"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "vasafe"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to TimescaleDB...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	execOrFatal(ctx, conn,
		"CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;",
		"timescaledb extension",
	)

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS lot_telemetry (

			-- Time column — TimescaleDB partitions data by this
			timestamp    TIMESTAMPTZ      NOT NULL,

			-- Server receipt time — sensor clocks are not trusted
			received_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),

			-- Identity
			lot_id       TEXT             NOT NULL,

			-- Sensor readings
			temperature  DOUBLE PRECISION NOT NULL DEFAULT 0,
			lid_open     BOOLEAN          NOT NULL DEFAULT false,
			violation    BOOLEAN          NOT NULL DEFAULT false,

			-- Optional fields — NULL means the sensor omitted them,
			-- which is not the same as reporting zero
			battery_pct  INTEGER,
			light_raw    INTEGER,
			send_kind    TEXT,

			-- Original payload — stored for debugging and replay
			raw_payload  JSONB
		);
	`, "lot_telemetry table created")

	execOrFatal(ctx, conn, `
		SELECT create_hypertable(
			'lot_telemetry',
			'timestamp',
			if_not_exists => TRUE
		);
	`, "lot_telemetry converted to hypertable")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS lot_alerts (
			id           BIGSERIAL        PRIMARY KEY,
			lot_id       TEXT             NOT NULL,
			alert_code   TEXT             NOT NULL,
			temperature  DOUBLE PRECISION,
			created_at   TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);
	`, "lot_alerts table created")

	execOrFatal(ctx, conn, `
		CREATE INDEX IF NOT EXISTS idx_telemetry_lot_time
		ON lot_telemetry (lot_id, timestamp DESC);
	`, "idx_telemetry_lot_time")

	execOrFatal(ctx, conn, `
		CREATE INDEX IF NOT EXISTS idx_alerts_lot
		ON lot_alerts (lot_id, created_at DESC);
	`, "idx_alerts_lot")

	fmt.Println("\n✅ Database initialised successfully")
}

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED — %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
