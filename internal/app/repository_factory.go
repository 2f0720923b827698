package app

import (
	"context"
	"database/sql"
	"fmt"

	calendarDomain "github.com/motioneffector/autoplanner/internal/calendar/domain"
	calendarPersistence "github.com/motioneffector/autoplanner/internal/calendar/infrastructure/persistence"
	seriesDomain "github.com/motioneffector/autoplanner/internal/series/domain"
	seriesPersistence "github.com/motioneffector/autoplanner/internal/series/infrastructure/persistence"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/database"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/outbox"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// SeriesAdapter creates the series domain.Adapter, ensuring its schema
// exists on first use. Built directly against the shared
// database.Connection abstraction, so it needs no per-driver branch.
func (f *RepositoryFactory) SeriesAdapter(ctx context.Context) (seriesDomain.Adapter, error) {
	return seriesPersistence.NewAdapter(ctx, f.conn)
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return outbox.NewPostgresRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return outbox.NewSQLiteRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// ConnectedCalendarRepository creates a connected calendar repository for the configured driver.
func (f *RepositoryFactory) ConnectedCalendarRepository() (calendarDomain.ConnectedCalendarRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return calendarPersistence.NewPostgresConnectedCalendarRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return calendarPersistence.NewSQLiteConnectedCalendarRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// SyncStateRepository creates a sync state repository for the configured driver.
func (f *RepositoryFactory) SyncStateRepository() (calendarDomain.SyncStateRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return calendarPersistence.NewPostgresSyncStateRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return calendarPersistence.NewSQLiteSyncStateRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Helper methods to get underlying database connections

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	return pgConn.Pool(), nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose DB()")
	}
	return sqliteConn.DB(), nil
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
