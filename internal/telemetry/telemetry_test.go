package telemetry_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/veridian/veridianctl/internal/control"
	"codeberg.org/veridian/veridianctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(ts time.Time) *control.Snapshot {
	return &control.Snapshot{
		Timestamp:          ts,
		Temperature:        72,
		AverageTemperature: 70,
		Band:               2,
		TargetSpeed:        62,
		EmittedSpeed:       60,
		Actuated:           true,
	}
}

func TestNewServiceDisabledIsNoop(t *testing.T) {
	collector, err := telemetry.NewService(telemetry.Config{Enabled: false})
	require.NoError(t, err)

	require.NoError(t, collector.Record(context.Background(), testSnapshot(time.Now())))
	require.NoError(t, collector.Close())
}

func TestNewServiceRejectsMissingDBPath(t *testing.T) {
	_, err := telemetry.NewService(telemetry.Config{Enabled: true, BatchSize: 1, BatchTimeout: 1})
	require.Error(t, err)
}

func TestRecordAndFlush(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	cfg := telemetry.Config{
		DBPath:       dbPath,
		Enabled:      true,
		BatchSize:    2,
		BatchTimeout: 60,
	}

	collector, err := telemetry.NewService(cfg)
	require.NoError(t, err)

	base := time.Now()
	require.NoError(t, collector.Record(context.Background(), testSnapshot(base)))
	require.NoError(t, collector.Record(context.Background(), testSnapshot(base.Add(time.Second))))
	// Close flushes anything still buffered
	require.NoError(t, collector.Record(context.Background(), testSnapshot(base.Add(2*time.Second))))
	require.NoError(t, collector.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM ticks").Scan(&count))
	assert.Equal(t, 3, count)

	var version int
	require.NoError(t, db.QueryRow("SELECT version FROM schema_versions").Scan(&version))
	assert.Equal(t, telemetry.SchemaVersion, version)

	var temp, emitted, actuated int
	require.NoError(t, db.QueryRow(
		"SELECT temperature, emitted_speed, actuated FROM ticks WHERE timestamp = ?", base.Unix(),
	).Scan(&temp, &emitted, &actuated))
	assert.Equal(t, 72, temp)
	assert.Equal(t, 60, emitted)
	assert.Equal(t, 1, actuated)
}

func TestRecordRejectsNilSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	collector, err := telemetry.NewService(telemetry.Config{
		DBPath:       dbPath,
		Enabled:      true,
		BatchSize:    8,
		BatchTimeout: 60,
	})
	require.NoError(t, err)
	defer collector.Close()

	require.Error(t, collector.Record(context.Background(), nil))
}

func TestReopenExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	cfg := telemetry.Config{
		DBPath:       dbPath,
		Enabled:      true,
		BatchSize:    1,
		BatchTimeout: 60,
	}

	collector, err := telemetry.NewService(cfg)
	require.NoError(t, err)
	require.NoError(t, collector.Record(context.Background(), testSnapshot(time.Now())))
	require.NoError(t, collector.Close())

	// Schema version check passes on a second open
	collector, err = telemetry.NewService(cfg)
	require.NoError(t, err)
	require.NoError(t, collector.Close())
}
