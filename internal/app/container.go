// Package app wires every bounded context's infrastructure into a single
// Container, the composition root both the CLI and worker binaries build
// their command/query handlers from.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	calendarApp "github.com/motioneffector/autoplanner/internal/calendar/application"
	"github.com/motioneffector/autoplanner/internal/calendar/application/subscribers"
	"github.com/motioneffector/autoplanner/internal/calendar/application/workers"
	calendarDomain "github.com/motioneffector/autoplanner/internal/calendar/domain"
	"github.com/motioneffector/autoplanner/internal/calendar/infrastructure/oauthtoken"
	calendarSetup "github.com/motioneffector/autoplanner/internal/calendar/setup"
	"github.com/motioneffector/autoplanner/internal/reflow/facade"
	seriesCommands "github.com/motioneffector/autoplanner/internal/series/application/commands"
	seriesQueries "github.com/motioneffector/autoplanner/internal/series/application/queries"
	seriesDomain "github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/crypto"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/database"
	_ "github.com/motioneffector/autoplanner/internal/shared/infrastructure/database/postgres"
	_ "github.com/motioneffector/autoplanner/internal/shared/infrastructure/database/sqlite"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/eventbus"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/migrations"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/outbox"
	"github.com/motioneffector/autoplanner/pkg/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// Container holds every wired dependency the CLI and worker binaries need.
// Nothing here holds business logic of its own — it is purely
// construction and lifecycle, the same role the teacher's container
// plays for its own bounded contexts.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DBConn   database.Connection
	DBDriver database.Driver

	RedisClient *redis.Client

	Factory       *RepositoryFactory
	SeriesAdapter seriesDomain.Adapter
	OutboxRepo    outbox.Repository

	EventPublisher eventbus.Publisher
	InProcessBus   *eventbus.InProcessEventBus

	FacadeCache   *facade.Cache
	ReflowService *facade.Service

	CreateSeriesHandler   *seriesCommands.CreateSeriesHandler
	SeriesMutationHandler *seriesCommands.SeriesMutationHandler
	LogCompletionHandler  *seriesCommands.LogCompletionHandler
	ConstraintHandler     *seriesCommands.ConstraintHandler
	ExceptionHandler      *seriesCommands.ExceptionHandler
	ReminderHandler       *seriesCommands.ReminderHandler
	SeriesQueries         *seriesQueries.SeriesQueries
	ScheduleQuery         *seriesQueries.ScheduleQuery

	ConnectedCalendarRepo  calendarDomain.ConnectedCalendarRepository
	SyncStateRepo          calendarDomain.SyncStateRepository
	ProviderRegistry       *calendarApp.ProviderRegistry
	SyncCoordinator        *calendarApp.SyncCoordinator
	ConflictDetector       *calendarApp.ConflictDetector
	CalendarSyncSubscriber *subscribers.CalendarSyncSubscriber
	CalendarImportWorker   *workers.CalendarImportWorker

	OutboxProcessor *outbox.Processor
}

// NewContainer wires a full PostgreSQL-backed Container with external
// Redis and RabbitMQ services, the mode used by the worker and by the
// CLI when ORBITA_LOCAL_MODE is not set.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver: database.Driver(cfg.DatabaseDriver),
		URL:    cfg.DatabaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	c := &Container{
		Config:   cfg,
		Logger:   logger,
		DBConn:   conn,
		DBDriver: conn.Driver(),
		Factory:  NewRepositoryFactory(conn),
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		c.RedisClient = redis.NewClient(opts)
		if err := c.RedisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, reflow cache disabled", "error", err)
			c.RedisClient = nil
		}
	}

	rabbitPublisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
	} else {
		c.EventPublisher = rabbitPublisher
	}

	if err := c.wireCommon(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// NewLocalContainer wires a SQLite-backed Container with no external
// services: no Redis cache (the façade falls back to uncached reads) and
// an in-process event bus instead of RabbitMQ. This is the zero-config
// mode the CLI defaults to.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	sqliteConn, ok := conn.(sqliteConnection)
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose *sql.DB")
	}
	if err := migrations.RunSQLiteMigrations(ctx, sqliteConn.DB()); err != nil {
		return nil, fmt.Errorf("run sqlite migrations: %w", err)
	}
	userID, err := parseOrDefaultUserID(cfg.UserID)
	if err != nil {
		return nil, err
	}
	if err := ensureLocalUserExists(ctx, sqliteConn.DB(), userID, logger); err != nil {
		return nil, fmt.Errorf("ensure local user: %w", err)
	}

	c := &Container{
		Config:       cfg,
		Logger:       logger,
		DBConn:       conn,
		DBDriver:     conn.Driver(),
		Factory:      NewRepositoryFactory(conn),
		InProcessBus: eventbus.NewInProcessEventBus(logger),
	}
	c.EventPublisher = c.InProcessBus

	if err := c.wireCommon(ctx); err != nil {
		return nil, err
	}

	if c.CalendarSyncSubscriber != nil {
		c.InProcessBus.RegisterConsumer(c.CalendarSyncSubscriber)
	}

	return c, nil
}

// wireCommon builds everything that doesn't differ between the full and
// local modes: the series adapter and façade, command/query handlers,
// calendar provider registry, and the outbox processor. Both
// NewContainer and NewLocalContainer call this once their
// driver-specific connection and event publisher are in place.
func (c *Container) wireCommon(ctx context.Context) error {
	cfg := c.Config
	logger := c.Logger

	adapter, err := c.Factory.SeriesAdapter(ctx)
	if err != nil {
		return fmt.Errorf("build series adapter: %w", err)
	}
	c.SeriesAdapter = adapter

	outboxRepo, err := c.Factory.OutboxRepository()
	if err != nil {
		return fmt.Errorf("build outbox repository: %w", err)
	}
	c.OutboxRepo = outboxRepo

	if c.RedisClient != nil {
		c.FacadeCache = facade.NewCache(c.RedisClient, 0)
	}

	reflowService := facade.NewService(adapter, c.FacadeCache, outboxRepo, logger)

	connectedCalendarRepo, err := c.Factory.ConnectedCalendarRepository()
	if err != nil {
		return fmt.Errorf("build connected calendar repository: %w", err)
	}
	c.ConnectedCalendarRepo = connectedCalendarRepo

	syncStateRepo, err := c.Factory.SyncStateRepository()
	if err != nil {
		return fmt.Errorf("build sync state repository: %w", err)
	}
	c.SyncStateRepo = syncStateRepo

	registry := calendarApp.NewProviderRegistry()
	c.ProviderRegistry = registry
	c.SyncCoordinator = calendarApp.NewSyncCoordinator(registry, connectedCalendarRepo)

	calendarSetup.RegisterProviders(registry, c.buildProviderConfig(connectedCalendarRepo, logger))

	userID, err := parseOrDefaultUserID(cfg.UserID)
	if err != nil {
		return err
	}

	if cfg.CalendarSyncEnabled {
		busySources, err := c.buildBusySources(ctx, userID, connectedCalendarRepo, registry, logger)
		if err != nil {
			logger.Warn("failed to build external busy sources", "error", err)
		} else if len(busySources) > 0 {
			reflowService = reflowService.WithBusySources(busySources)
		}
	}
	c.ReflowService = reflowService

	c.CreateSeriesHandler = seriesCommands.NewCreateSeriesHandler(adapter, outboxRepo)
	c.SeriesMutationHandler = seriesCommands.NewSeriesMutationHandler(adapter, outboxRepo)
	c.LogCompletionHandler = seriesCommands.NewLogCompletionHandler(adapter)
	c.ConstraintHandler = seriesCommands.NewConstraintHandler(adapter)
	c.ExceptionHandler = seriesCommands.NewExceptionHandler(adapter)
	c.ReminderHandler = seriesCommands.NewReminderHandler(adapter)
	c.SeriesQueries = seriesQueries.NewSeriesQueries(adapter)
	c.ScheduleQuery = seriesQueries.NewScheduleQuery(reflowService)

	c.ConflictDetector = calendarApp.NewConflictDetector(reflowService, logger)

	primaryCalendar, err := connectedCalendarRepo.FindPrimaryForUser(ctx, userID)
	if err != nil {
		logger.Debug("no primary calendar configured for local user", "error", err)
	} else if primaryCalendar != nil {
		if importer, err := registry.CreateImporter(ctx, primaryCalendar); err == nil {
			conflictHandler := calendarApp.NewConflictDetectorHandler(c.ConflictDetector, userID, cfg.CalendarConflictStrategy)
			c.CalendarImportWorker = workers.NewCalendarImportWorker(
				importer,
				syncStateRepo,
				conflictHandler,
				workers.CalendarImportWorkerConfig{
					Interval:         cfg.CalendarSyncInterval,
					LookAheadDays:    cfg.CalendarSyncLookAheadDays,
					MaxSyncErrors:    workers.DefaultMaxSyncErrors,
					BatchSize:        10,
					SkipOrbitaEvents: true,
				},
				logger,
			)
		} else {
			logger.Debug("no importer registered for primary calendar provider", "provider", primaryCalendar.Provider(), "error", err)
		}

		if syncer, err := registry.CreateSyncer(ctx, primaryCalendar); err == nil {
			c.CalendarSyncSubscriber = subscribers.NewCalendarSyncSubscriber(syncer, reflowService, logger)
		}
	}

	if cfg.OutboxProcessorEnabled {
		processorConfig := outbox.ProcessorConfig{
			PollInterval: cfg.OutboxPollInterval,
			BatchSize:    cfg.OutboxBatchSize,
			MaxRetries:   cfg.OutboxMaxRetries,
		}
		c.OutboxProcessor = outbox.NewProcessor(outboxRepo, c.EventPublisher, processorConfig, logger)
	}

	return nil
}

// buildProviderConfig wires an OAuth2-token-backed provider for Google
// and Microsoft when both the encryption key and that provider's OAuth2
// client credentials are configured. CalDAV/Apple are left unregistered
// since the config layer carries no per-user CalDAV credential store —
// the in-scope calendar integrations are OAuth2, not CalDAV basic auth.
func (c *Container) buildProviderConfig(repo calendarDomain.ConnectedCalendarRepository, logger *slog.Logger) calendarSetup.ProviderConfig {
	providerConfig := calendarSetup.ProviderConfig{Logger: logger}

	cfg := c.Config
	if cfg.EncryptionKey == "" || cfg.OAuthClientID == "" || cfg.OAuthClientSecret == "" {
		return providerConfig
	}
	encrypter, err := crypto.NewAESGCMFromBase64Key(cfg.EncryptionKey)
	if err != nil {
		logger.Warn("invalid encryption key, OAuth token storage disabled", "error", err)
		return providerConfig
	}

	switch cfg.OAuthProvider {
	case "google":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
		}
		providerConfig.GoogleOAuth = oauthtoken.NewProvider(repo, encrypter, oauthCfg, calendarDomain.ProviderGoogle)
	case "microsoft":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Endpoint:     microsoft.AzureADEndpoint("common"),
			Scopes:       []string{"Calendars.ReadWrite"},
		}
		providerConfig.MicrosoftOAuth = oauthtoken.NewProvider(repo, encrypter, oauthCfg, calendarDomain.ProviderMicrosoft)
	}

	return providerConfig
}

// buildBusySources wraps each of a user's enabled pull calendars in a
// circuit breaker so an unreachable external calendar degrades the
// reflow pass's external-busy check rather than failing it outright.
func (c *Container) buildBusySources(ctx context.Context, userID uuid.UUID, repo calendarDomain.ConnectedCalendarRepository, registry *calendarApp.ProviderRegistry, logger *slog.Logger) ([]calendarApp.BusySource, error) {
	calendars, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var sources []calendarApp.BusySource
	for _, cal := range calendars {
		if !cal.IsEnabled() || !cal.SyncPull() {
			continue
		}
		importer, err := registry.CreateImporter(ctx, cal)
		if err != nil {
			logger.Debug("no importer for connected calendar", "provider", cal.Provider(), "error", err)
			continue
		}
		sources = append(sources, calendarApp.NewBreakerBusySource(cal.ID().String(), importer, logger))
	}
	return sources, nil
}

// Close releases every resource the container opened.
func (c *Container) Close() error {
	if c.CalendarImportWorker != nil {
		c.CalendarImportWorker.Stop()
	}
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing redis client", "error", err)
		}
	}
	if c.DBConn != nil {
		return c.DBConn.Close()
	}
	return nil
}

func parseOrDefaultUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid user id %q: %w", raw, err)
	}
	return id, nil
}

// sqliteConnection is satisfied by the sqlite package's database.Connection
// implementation, giving NewLocalContainer access to the raw *sql.DB the
// migrations runner needs.
type sqliteConnection interface {
	database.Connection
	DB() *sql.DB
}

// ensureLocalUserExists seeds the single local user row local mode
// operates as, since there is no registration flow to create one.
func ensureLocalUserExists(ctx context.Context, db *sql.DB, userID uuid.UUID, logger *slog.Logger) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID.String()).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("check local user: %w", err)
	}

	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id, email, name) VALUES (?, ?, ?)",
		userID.String(), "local@reflow.local", "Local User",
	)
	if err != nil {
		return fmt.Errorf("create local user: %w", err)
	}
	logger.Info("created local user", "user_id", userID)
	return nil
}
