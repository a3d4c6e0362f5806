package store

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Incident index",
		SQL: `
CREATE TABLE IF NOT EXISTS incidents (
    row_index INTEGER PRIMARY KEY,
    district TEXT NOT NULL DEFAULT '',
    unit TEXT NOT NULL DEFAULT '',
    beat TEXT NOT NULL DEFAULT '',
    crime_type TEXT NOT NULL DEFAULT '',
    crime_group TEXT NOT NULL DEFAULT '',
    offence_date TEXT NOT NULL DEFAULT '',
    offence_time TEXT NOT NULL DEFAULT '',
    month TEXT NOT NULL DEFAULT '',
    accused_age TEXT NOT NULL DEFAULT '',
    accused_caste TEXT NOT NULL DEFAULT '',
    accused_profession TEXT NOT NULL DEFAULT '',
    latitude REAL,
    longitude REAL
);

CREATE INDEX IF NOT EXISTS idx_incidents_district_unit ON incidents(district, unit);
CREATE INDEX IF NOT EXISTS idx_incidents_unit ON incidents(unit);
CREATE INDEX IF NOT EXISTS idx_incidents_beat ON incidents(beat);
`,
	},
	{
		Version:     2,
		Description: "Derived time buckets",
		SQL: `
ALTER TABLE incidents ADD COLUMN hour INTEGER;
ALTER TABLE incidents ADD COLUMN month_num INTEGER;
ALTER TABLE incidents ADD COLUMN week INTEGER;
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		s.log.Debug("applying migration", zap.Int("version", m.Version), zap.String("description", m.Description))

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
