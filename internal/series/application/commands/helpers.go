package commands

import (
	"context"

	sharedDomain "github.com/motioneffector/autoplanner/internal/shared/domain"
	"github.com/motioneffector/autoplanner/internal/shared/infrastructure/outbox"
)

// publishEvents appends an aggregate's uncommitted domain events to the
// outbox inside the caller's transaction, matching the teacher's
// save-then-publish-via-outbox idiom rather than publishing directly to
// the event bus from the command handler.
func publishEvents(ctx context.Context, outboxRepo outbox.Repository, events []sharedDomain.DomainEvent) error {
	if outboxRepo == nil || len(events) == 0 {
		return nil
	}
	msgs := make([]*outbox.Message, 0, len(events))
	for _, e := range events {
		msg, err := outbox.NewMessage(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return outboxRepo.SaveBatch(ctx, msgs)
}
