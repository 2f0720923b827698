package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	calendarDomain "github.com/motioneffector/autoplanner/internal/calendar/domain"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	seriesDomain "github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/motioneffector/autoplanner/internal/shared/infrastructure/database/sqlite"
)

// mockSQLiteConnection implements database.Connection for testing, wrapping
// a plain *sql.DB the same way the sqlite package's real Connection does.
type mockSQLiteConnection struct {
	db *sql.DB
}

func (m *mockSQLiteConnection) Driver() database.Driver { return database.DriverSQLite }
func (m *mockSQLiteConnection) DB() *sql.DB             { return m.db }
func (m *mockSQLiteConnection) Close() error            { return m.db.Close() }
func (m *mockSQLiteConnection) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
func (m *mockSQLiteConnection) BeginTx(ctx context.Context) (database.Transaction, error) {
	return nil, nil
}
func (m *mockSQLiteConnection) Exec(ctx context.Context, query string, args ...any) (database.Result, error) {
	result, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return database.WrapSQLResult(result), nil
}
func (m *mockSQLiteConnection) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return m.db.QueryRowContext(ctx, query, args...)
}
func (m *mockSQLiteConnection) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return database.WrapSQLRows(rows), nil
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	return sqlDB
}

func TestRepositoryFactory_SeriesAdapter_SQLite(t *testing.T) {
	sqlDB := setupTestDB(t)
	defer sqlDB.Close()

	conn := &mockSQLiteConnection{db: sqlDB}
	factory := NewRepositoryFactory(conn)

	adapter, err := factory.SeriesAdapter(context.Background())
	require.NoError(t, err)
	require.NotNil(t, adapter)

	userID := uuid.New()
	pattern, err := seriesDomain.NewDailyPattern(30)
	require.NoError(t, err)

	series, err := seriesDomain.NewSeries(userID, "Factory Test Series", timegrid.LocalDateFromTime(time.Now()), pattern)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, adapter.CreateSeries(ctx, series))

	found, err := adapter.GetSeries(ctx, series.ID())
	require.NoError(t, err)
	assert.Equal(t, "Factory Test Series", found.Name())
}

func TestRepositoryFactory_ConnectedCalendarRepository_SQLite(t *testing.T) {
	sqlDB := setupTestDB(t)
	defer sqlDB.Close()

	conn := &mockSQLiteConnection{db: sqlDB}
	factory := NewRepositoryFactory(conn)

	_, err := sqlDB.Exec(`
		CREATE TABLE connected_calendars (
			id TEXT PRIMARY KEY, user_id TEXT NOT NULL, provider TEXT NOT NULL,
			calendar_id TEXT NOT NULL, name TEXT NOT NULL, is_primary INTEGER NOT NULL DEFAULT 0,
			is_enabled INTEGER NOT NULL DEFAULT 1, sync_push INTEGER NOT NULL DEFAULT 1,
			sync_pull INTEGER NOT NULL DEFAULT 0, config TEXT, last_sync_at TEXT,
			created_at TEXT NOT NULL, updated_at TEXT NOT NULL,
			UNIQUE (user_id, provider, calendar_id)
		)
	`)
	require.NoError(t, err)

	repo, err := factory.ConnectedCalendarRepository()
	require.NoError(t, err)
	require.NotNil(t, repo)

	userID := uuid.New()
	cal, err := calendarDomain.NewConnectedCalendar(userID, calendarDomain.ProviderGoogle, "primary", "Factory Test Calendar")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, cal))

	found, err := repo.FindByID(ctx, cal.ID())
	require.NoError(t, err)
	assert.Equal(t, "Factory Test Calendar", found.Name())
}

func TestRepositoryFactory_Driver(t *testing.T) {
	sqlDB := setupTestDB(t)
	defer sqlDB.Close()

	conn := &mockSQLiteConnection{db: sqlDB}
	factory := NewRepositoryFactory(conn)

	assert.Equal(t, database.DriverSQLite, factory.Driver())
}

func TestRepositoryFactory_Connection(t *testing.T) {
	sqlDB := setupTestDB(t)
	defer sqlDB.Close()

	conn := &mockSQLiteConnection{db: sqlDB}
	factory := NewRepositoryFactory(conn)

	assert.Equal(t, conn, factory.Connection())
}
