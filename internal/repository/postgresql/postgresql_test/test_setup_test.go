package postgresql_test

import (
	"context"
	"fmt"
	"os"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_code TEXT NOT NULL,
	full_name TEXT NOT NULL,
	external_person_id BIGINT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS sites (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	name TEXT NOT NULL,
	code TEXT NOT NULL,
	latitude NUMERIC(9, 6) NOT NULL,
	longitude NUMERIC(9, 6) NOT NULL,
	radius_meters NUMERIC(10, 2),
	external_project_id BIGINT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS presence_events (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_id UUID NOT NULL,
	site_id UUID NOT NULL,
	kind TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	latitude NUMERIC(9, 6),
	longitude NUMERIC(9, 6),
	trigger_method TEXT NOT NULL,
	is_noise BOOLEAN NOT NULL DEFAULT FALSE,
	noise_distance_meters NUMERIC(12, 3),
	summarized_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS daily_summaries (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_id UUID NOT NULL,
	site_id UUID NOT NULL,
	date DATE NOT NULL,
	first_entry_at TIMESTAMPTZ,
	last_exit_at TIMESTAMPTZ,
	time_on_site_minutes INTEGER NOT NULL,
	actual_hours NUMERIC(6, 2) NOT NULL,
	expected_hours NUMERIC(6, 2) NOT NULL,
	utilization_percent NUMERIC(8, 2) NOT NULL,
	variance_hours NUMERIC(6, 2) NOT NULL,
	status TEXT NOT NULL,
	event_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (company_id, employee_id, site_id, date)
);

CREATE TABLE IF NOT EXISTS spa_records (
	id UUID PRIMARY KEY,
	company_id UUID NOT NULL,
	employee_id UUID NOT NULL,
	site_id UUID NOT NULL,
	date DATE NOT NULL,
	completed BOOLEAN NOT NULL,
	image_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tenant_settings (
	company_id UUID PRIMARY KEY,
	timezone TEXT,
	geofence_radius_meters NUMERIC(10, 2),
	noise_threshold_meters NUMERIC(10, 2),
	expected_hours_per_day NUMERIC(5, 2),
	include_weekends BOOLEAN,
	open_session_policy TEXT,
	excellent_threshold_percent NUMERIC(6, 2),
	good_threshold_percent NUMERIC(6, 2)
);

CREATE TABLE IF NOT EXISTS bank_holidays (
	company_id UUID NOT NULL,
	date DATE NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (company_id, date)
);
`

// TestDatabaseSetup holds the connection used by repository integration tests
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL
func NewTestDatabase() (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("TEST_DATABASE_URL is not set")
	}

	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	return &TestDatabaseSetup{DB: db}, nil
}

// Migrate creates the tables used by the repositories
func (t *TestDatabaseSetup) Migrate(ctx context.Context) error {
	if _, err := t.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// TruncateAllTables removes all rows from the repository tables
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"employees",
		"sites",
		"presence_events",
		"daily_summaries",
		"spa_records",
		"tenant_settings",
		"bank_holidays",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
