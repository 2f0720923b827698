package app

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	seriesCommands "github.com/motioneffector/autoplanner/internal/series/application/commands"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalModeContainer tests that a local mode container can be created and used.
func TestLocalModeContainer(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	cfg := &config.Config{
		AppEnv:         "test",
		LocalMode:      true,
		DatabaseDriver: "sqlite",
		SQLitePath:     dbPath,
		UserID:         "00000000-0000-0000-0000-000000000001",
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := context.Background()

	container, err := NewLocalContainer(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, container)
	defer container.Close()

	assert.NotNil(t, container.DBConn)
	assert.Equal(t, "sqlite", string(container.DBDriver))

	assert.NotNil(t, container.SeriesAdapter)
	assert.NotNil(t, container.OutboxRepo)
	assert.NotNil(t, container.ConnectedCalendarRepo)
	assert.NotNil(t, container.SyncStateRepo)

	assert.NotNil(t, container.ReflowService)
	assert.NotNil(t, container.CreateSeriesHandler)
	assert.NotNil(t, container.SeriesMutationHandler)
	assert.NotNil(t, container.LogCompletionHandler)
	assert.NotNil(t, container.ConstraintHandler)
	assert.NotNil(t, container.ExceptionHandler)
	assert.NotNil(t, container.ReminderHandler)
	assert.NotNil(t, container.SeriesQueries)
	assert.NotNil(t, container.ScheduleQuery)
	assert.NotNil(t, container.ConflictDetector)
}

// TestLocalModeSeriesWorkflow tests creating a recurring series and
// reading it back in local mode.
func TestLocalModeSeriesWorkflow(t *testing.T) {
	container, ctx, userID, sqlDB := setupLocalModeContainer(t)
	defer container.Close()
	defer sqlDB.Close()

	pattern, err := domain.NewDailyPattern(30)
	require.NoError(t, err)

	cmd := seriesCommands.CreateSeriesCommand{
		UserID:    userID,
		Name:      "Morning Run",
		StartDate: timegrid.LocalDateFromTime(time.Now()),
		Pattern:   pattern,
	}

	result, err := container.CreateSeriesHandler.Handle(ctx, cmd)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEqual(t, uuid.Nil, result.SeriesID)

	series, err := container.SeriesQueries.Get(ctx, result.SeriesID)
	require.NoError(t, err)
	require.NotNil(t, series)
	assert.Equal(t, "Morning Run", series.Name())
}

// TestLocalModeOutboxWorkflow tests outbox persistence in local mode.
func TestLocalModeOutboxWorkflow(t *testing.T) {
	container, ctx, _, sqlDB := setupLocalModeContainer(t)
	defer container.Close()
	defer sqlDB.Close()

	require.NotNil(t, container.OutboxRepo)

	messages, err := container.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

// TestLocalModeScheduleQuery tests the reflow schedule query against an
// empty series set.
func TestLocalModeScheduleQuery(t *testing.T) {
	container, ctx, userID, sqlDB := setupLocalModeContainer(t)
	defer container.Close()
	defer sqlDB.Close()

	windowStart := timegrid.LocalDateFromTime(time.Now())
	windowEnd := windowStart.AddDays(7)

	output, err := container.ScheduleQuery.Run(ctx, userID, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Empty(t, output.Instances)
}

// setupLocalModeContainer creates a test local mode container.
func setupLocalModeContainer(t *testing.T) (*Container, context.Context, uuid.UUID, *sql.DB) {
	t.Helper()

	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	userID := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	cfg := &config.Config{
		AppEnv:         "test",
		LocalMode:      true,
		DatabaseDriver: "sqlite",
		SQLitePath:     dbPath,
		UserID:         userID.String(),
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	ctx := context.Background()

	container, err := NewLocalContainer(ctx, cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, container)

	// Local user is auto-created by NewLocalContainer via ensureLocalUserExists.
	sqliteConn, ok := container.DBConn.(interface{ DB() *sql.DB })
	require.True(t, ok, "expected sqlite connection with DB() method")
	sqlDB := sqliteConn.DB()

	return container, ctx, userID, sqlDB
}
