package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/oref-labs/placement-api/pkg/config"
)

// migration is one ordered schema step. applied is an optional probe that
// detects a step already present in a database created before the
// schema_migrations ledger existed; such steps are recorded and skipped.
type migration struct {
	id      string
	applied func(db *sqlx.DB, driver string) (bool, error)
	run     func(db *sqlx.DB, driver string) error
}

var migrations = []migration{
	{
		id: "001_create_assignments",
		run: func(db *sqlx.DB, driver string) error {
			ddl := `CREATE TABLE IF NOT EXISTS assignments (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                year TEXT NOT NULL,
                period TEXT NOT NULL,
                test_id TEXT NOT NULL,
                class TEXT NOT NULL,
                student TEXT NOT NULL,
                edited_by TEXT NOT NULL
            )`
			if driver == config.DriverPostgres {
				ddl = `CREATE TABLE IF NOT EXISTS assignments (
                    id BIGSERIAL PRIMARY KEY,
                    year TEXT NOT NULL,
                    period TEXT NOT NULL,
                    test_id TEXT NOT NULL,
                    class TEXT NOT NULL,
                    student TEXT NOT NULL,
                    edited_by TEXT NOT NULL
                )`
			}
			_, err := db.Exec(ddl)
			return err
		},
	},
	{
		// Pre-existing tables from the older layout lack the audit
		// timestamp; the column is added without touching stored rows.
		id: "002_add_edited_at",
		applied: func(db *sqlx.DB, driver string) (bool, error) {
			return columnExists(db, driver, "assignments", "edited_at")
		},
		run: func(db *sqlx.DB, driver string) error {
			if _, err := db.Exec(`ALTER TABLE assignments ADD COLUMN edited_at TIMESTAMP`); err != nil {
				return err
			}
			_, err := db.Exec(`UPDATE assignments SET edited_at = CURRENT_TIMESTAMP WHERE edited_at IS NULL`)
			return err
		},
	},
}

// Migrate applies the ordered migration list, recording each step in
// schema_migrations so reruns are no-ops.
func Migrate(db *sqlx.DB, driver string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        id TEXT PRIMARY KEY,
        applied_at TIMESTAMP NOT NULL
    )`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		recorded, err := migrationRecorded(db, m.id)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.id, err)
		}
		if recorded {
			continue
		}

		if m.applied != nil {
			present, err := m.applied(db, driver)
			if err != nil {
				return fmt.Errorf("probe migration %s: %w", m.id, err)
			}
			if present {
				if err := recordMigration(db, m.id); err != nil {
					return err
				}
				continue
			}
		}

		if err := m.run(db, driver); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.id, err)
		}
		if err := recordMigration(db, m.id); err != nil {
			return err
		}
		logger.Info("migration applied", zap.String("id", m.id))
	}

	return nil
}

func migrationRecorded(db *sqlx.DB, id string) (bool, error) {
	var count int
	if err := db.Get(&count, db.Rebind(`SELECT COUNT(1) FROM schema_migrations WHERE id = ?`), id); err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(db *sqlx.DB, id string) error {
	_, err := db.Exec(db.Rebind(`INSERT INTO schema_migrations (id, applied_at) VALUES (?, ?)`), id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record migration %s: %w", id, err)
	}
	return nil
}

func columnExists(db *sqlx.DB, driver, table, column string) (bool, error) {
	if driver == config.DriverPostgres {
		var count int
		err := db.Get(&count, `SELECT COUNT(1) FROM information_schema.columns WHERE table_name = $1 AND column_name = $2`, table, column)
		if err != nil {
			return false, err
		}
		return count > 0, nil
	}

	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var (
			cid          int
			name, ctype  string
			notNull, pk  int
			defaultValue interface{}
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
