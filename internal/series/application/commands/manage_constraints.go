package commands

import (
	"context"

	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
)

// ConstraintHandler handles relational-constraint CRUD.
type ConstraintHandler struct {
	adapter domain.Adapter
}

// NewConstraintHandler wires a ConstraintHandler.
func NewConstraintHandler(adapter domain.Adapter) *ConstraintHandler {
	return &ConstraintHandler{adapter: adapter}
}

// CreateConstraintCommand declares a noOverlap or mustBeBefore relation
// between two series or tag groups (spec §3).
type CreateConstraintCommand struct {
	Kind domain.ConstraintKind
	A    domain.ConstraintTarget
	B    domain.ConstraintTarget
}

// Create creates the constraint.
func (h *ConstraintHandler) Create(ctx context.Context, cmd CreateConstraintCommand) (*domain.Constraint, error) {
	c, err := domain.NewConstraint(cmd.Kind, cmd.A, cmd.B)
	if err != nil {
		return nil, err
	}
	if err := h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		return h.adapter.CreateConstraint(txCtx, c)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteConstraintCommand removes a constraint by ID.
type DeleteConstraintCommand struct {
	ConstraintID uuid.UUID
}

// Delete deletes the constraint.
func (h *ConstraintHandler) Delete(ctx context.Context, cmd DeleteConstraintCommand) error {
	return h.adapter.WithinTransaction(ctx, func(txCtx context.Context) error {
		return h.adapter.DeleteConstraint(txCtx, cmd.ConstraintID)
	})
}
