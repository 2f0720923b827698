package cli

import (
	calendarApp "github.com/motioneffector/autoplanner/internal/calendar/application"
	seriesCommands "github.com/motioneffector/autoplanner/internal/series/application/commands"
	seriesQueries "github.com/motioneffector/autoplanner/internal/series/application/queries"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Series Command Handlers
	CreateSeriesHandler   *seriesCommands.CreateSeriesHandler
	SeriesMutationHandler *seriesCommands.SeriesMutationHandler
	LogCompletionHandler  *seriesCommands.LogCompletionHandler
	ConstraintHandler     *seriesCommands.ConstraintHandler
	ExceptionHandler      *seriesCommands.ExceptionHandler
	ReminderHandler       *seriesCommands.ReminderHandler

	// Series Query Handlers
	SeriesQueries *seriesQueries.SeriesQueries
	ScheduleQuery *seriesQueries.ScheduleQuery

	// Calendar
	ProviderRegistry *calendarApp.ProviderRegistry
	SyncCoordinator  *calendarApp.SyncCoordinator
	ConflictDetector *calendarApp.ConflictDetector
	CalendarSyncer   calendarApp.Syncer

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	createSeriesHandler *seriesCommands.CreateSeriesHandler,
	seriesMutationHandler *seriesCommands.SeriesMutationHandler,
	logCompletionHandler *seriesCommands.LogCompletionHandler,
	constraintHandler *seriesCommands.ConstraintHandler,
	exceptionHandler *seriesCommands.ExceptionHandler,
	reminderHandler *seriesCommands.ReminderHandler,
	seriesQueriesHandler *seriesQueries.SeriesQueries,
	scheduleQuery *seriesQueries.ScheduleQuery,
) *App {
	return &App{
		CreateSeriesHandler:   createSeriesHandler,
		SeriesMutationHandler: seriesMutationHandler,
		LogCompletionHandler:  logCompletionHandler,
		ConstraintHandler:     constraintHandler,
		ExceptionHandler:      exceptionHandler,
		ReminderHandler:       reminderHandler,
		SeriesQueries:         seriesQueriesHandler,
		ScheduleQuery:         scheduleQuery,
		CurrentUserID:         uuid.Nil,
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// SetCalendarSyncer updates the calendar syncer.
func (a *App) SetCalendarSyncer(syncer calendarApp.Syncer) {
	a.CalendarSyncer = syncer
}

// SetProviderRegistry updates the calendar provider registry.
func (a *App) SetProviderRegistry(registry *calendarApp.ProviderRegistry) {
	a.ProviderRegistry = registry
}

// SetSyncCoordinator updates the calendar sync coordinator.
func (a *App) SetSyncCoordinator(coordinator *calendarApp.SyncCoordinator) {
	a.SyncCoordinator = coordinator
}

// SetConflictDetector updates the calendar conflict detector.
func (a *App) SetConflictDetector(detector *calendarApp.ConflictDetector) {
	a.ConflictDetector = detector
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
