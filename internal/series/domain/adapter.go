package domain

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
)

// Adapter is the CRUD/transaction boundary the core reflow snapshot is
// read through (spec §6.2). It is never imported by internal/reflow —
// only by the façade that hydrates a ReflowInput from it. UpsertInstanceException
// is upsert by (seriesID, originalDate), matching spec §6.2.
type Adapter interface {
	// Series
	CreateSeries(ctx context.Context, s *Series) error
	UpdateSeries(ctx context.Context, s *Series) error
	GetSeries(ctx context.Context, id uuid.UUID) (*Series, error)
	ListSeriesByUser(ctx context.Context, userID uuid.UUID) ([]*Series, error)
	// DeleteSeries cascades to patterns, reminders, acks, links where the
	// series is the child, and instance exceptions (spec §3). Fails with
	// ErrCompletionsExist or ErrLinkedChildrenExist per spec §3/§6.4.
	DeleteSeries(ctx context.Context, id uuid.UUID) error

	// Patterns are owned by their series and persisted as part of it
	// (Series.Patterns()); no separate CRUD surface is exposed.

	// Chain links
	CreateChainLink(ctx context.Context, childID uuid.UUID, link *ChainLink) error
	GetChainLinkByChild(ctx context.Context, childID uuid.UUID) (*ChainLink, error)
	ListChainLinksByParent(ctx context.Context, parentID uuid.UUID) ([]uuid.UUID, error)
	DeleteChainLink(ctx context.Context, childID uuid.UUID) error

	// Constraints
	CreateConstraint(ctx context.Context, c *Constraint) error
	DeleteConstraint(ctx context.Context, id uuid.UUID) error
	ListConstraints(ctx context.Context, userID uuid.UUID) ([]*Constraint, error)

	// Completions
	CreateCompletion(ctx context.Context, c *Completion) error
	ListCompletionsBySeries(ctx context.Context, seriesID uuid.UUID) ([]*Completion, error)
	ListCompletionsByDateRange(ctx context.Context, seriesID uuid.UUID, start, end timegrid.LocalDate) ([]*Completion, error)

	// Instance exceptions (upsert semantics, spec §3/§6.2)
	UpsertInstanceException(ctx context.Context, e *InstanceException) error
	GetInstanceException(ctx context.Context, seriesID uuid.UUID, date timegrid.LocalDate) (*InstanceException, error)
	ListInstanceExceptionsByRange(ctx context.Context, seriesID uuid.UUID, start, end timegrid.LocalDate) ([]*InstanceException, error)

	// Reminders and acknowledgments
	CreateReminder(ctx context.Context, r *Reminder) error
	ListRemindersBySeries(ctx context.Context, seriesID uuid.UUID) ([]*Reminder, error)
	DeleteReminder(ctx context.Context, id uuid.UUID) error
	// AcknowledgeReminder is idempotent: acknowledging twice is a no-op
	// after the first (spec §8).
	AcknowledgeReminder(ctx context.Context, ack *ReminderAck) error
	IsReminderAcknowledged(ctx context.Context, reminderID uuid.UUID, date timegrid.LocalDate) (bool, error)
	// PurgeAcksBefore drops acks for instances older than the retention
	// cutoff (reminders themselves are kept); returns the count purged.
	PurgeAcksBefore(ctx context.Context, cutoff timegrid.LocalDate) (int, error)

	// Tag index, rebuilt on mutation/hydration (spec §3).
	TagsForSeries(ctx context.Context, seriesID uuid.UUID) ([]string, error)
	SeriesIDsForTag(ctx context.Context, tag string) ([]uuid.UUID, error)

	// Transactional scope (spec §6.2, §7: "mutations are transactional at
	// the adapter boundary").
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
