// Package queries holds the read-only application handlers used by the
// CLI and any future read API: thin wrappers over the Adapter that add
// no behavior beyond the occasional filter, matching the teacher's
// application/queries split from application/commands.
package queries

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// SeriesQueries answers read-only questions about a user's series.
type SeriesQueries struct {
	adapter domain.Adapter
}

// NewSeriesQueries wires a SeriesQueries.
func NewSeriesQueries(adapter domain.Adapter) *SeriesQueries {
	return &SeriesQueries{adapter: adapter}
}

// Get returns a single series by ID.
func (q *SeriesQueries) Get(ctx context.Context, id uuid.UUID) (*domain.Series, error) {
	return q.adapter.GetSeries(ctx, id)
}

// ListByUser returns every series owned by a user, including archived
// ones — callers that need only active series filter on IsArchived.
func (q *SeriesQueries) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Series, error) {
	return q.adapter.ListSeriesByUser(ctx, userID)
}

// ListCompletions returns every completion logged for a series.
func (q *SeriesQueries) ListCompletions(ctx context.Context, seriesID uuid.UUID) ([]*domain.Completion, error) {
	return q.adapter.ListCompletionsBySeries(ctx, seriesID)
}

// ListConstraints returns every relational constraint declared by a user.
func (q *SeriesQueries) ListConstraints(ctx context.Context, userID uuid.UUID) ([]*domain.Constraint, error) {
	return q.adapter.ListConstraints(ctx, userID)
}

// ListReminders returns every reminder attached to a series.
func (q *SeriesQueries) ListReminders(ctx context.Context, seriesID uuid.UUID) ([]*domain.Reminder, error) {
	return q.adapter.ListRemindersBySeries(ctx, seriesID)
}

// ListChainChildren returns the IDs of every series chained to the given
// parent.
func (q *SeriesQueries) ListChainChildren(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error) {
	return q.adapter.ListChainLinksByParent(ctx, parentID)
}
