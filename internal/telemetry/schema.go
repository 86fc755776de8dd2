package telemetry

import (
	"database/sql"

	"codeberg.org/veridian/veridianctl/internal/errors"
	"codeberg.org/veridian/veridianctl/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	CREATE TABLE IF NOT EXISTS schema_versions (
	    version     INTEGER PRIMARY KEY,
	    applied_at  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS ticks (
	    timestamp        INTEGER PRIMARY KEY,
	    temperature      INTEGER NOT NULL,
	    temp_average     INTEGER NOT NULL,
	    band             INTEGER NOT NULL,
	    target_speed     INTEGER NOT NULL,
	    emitted_speed    INTEGER NOT NULL,
	    actuated         INTEGER NOT NULL CHECK (actuated IN (0, 1))
	);`

	insertTickSQL = `
	INSERT OR REPLACE INTO ticks (
	    timestamp, temperature, temp_average, band,
	    target_speed, emitted_speed, actuated
	) VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// ensureSchema creates the schema on a fresh database and verifies the
// version on an existing one.
func ensureSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	version, err := currentSchemaVersion(db)
	if err != nil {
		return err
	}

	if version == SchemaVersion {
		return nil
	}

	if version > 0 {
		return errFactory.WithData(ErrSchemaMismatch, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to roll back schema transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
	    INSERT INTO schema_versions (version, applied_at)
	    VALUES (?, datetime('now'))
	`, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().Int("version", SchemaVersion).Msg("Telemetry schema initialized")

	return nil
}

func currentSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	var exists bool
	err := db.QueryRow(`
	    SELECT EXISTS (
	        SELECT 1 FROM sqlite_master
	        WHERE type='table' AND name='schema_versions'
	    )
	`).Scan(&exists)
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
	    SELECT version FROM schema_versions
	    ORDER BY version DESC LIMIT 1
	`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	return version, nil
}
