package domain_test

import (
	"testing"

	"github.com/motioneffector/autoplanner/internal/reflow/instance"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertRescheduledToRescheduledReplacesTime(t *testing.T) {
	date := timegrid.LocalDate{Year: 2026, Month: 1, Day: 1}
	first := timegrid.LocalTime{Hour: 9}
	e := domain.NewRescheduledException(uuid.New(), date, first)

	second := timegrid.LocalTime{Hour: 14}
	require.NoError(t, e.Upsert(instance.ExceptionRescheduled, &second))

	assert.Equal(t, instance.ExceptionRescheduled, e.Kind())
	assert.Equal(t, &second, e.NewTime())
}

func TestUpsertRescheduledToCancelledDropsTime(t *testing.T) {
	date := timegrid.LocalDate{Year: 2026, Month: 1, Day: 1}
	e := domain.NewRescheduledException(uuid.New(), date, timegrid.LocalTime{Hour: 9})

	require.NoError(t, e.Upsert(instance.ExceptionCancelled, nil))
	assert.Equal(t, instance.ExceptionCancelled, e.Kind())
	assert.Nil(t, e.NewTime())
}

func TestCancelledCannotBeRescheduled(t *testing.T) {
	date := timegrid.LocalDate{Year: 2026, Month: 1, Day: 1}
	e := domain.NewCancelledException(uuid.New(), date)

	newTime := timegrid.LocalTime{Hour: 9}
	err := e.Upsert(instance.ExceptionRescheduled, &newTime)
	assert.ErrorIs(t, err, domain.ErrCancelledInstance)
}

func TestDoubleCancelIsRejected(t *testing.T) {
	date := timegrid.LocalDate{Year: 2026, Month: 1, Day: 1}
	e := domain.NewCancelledException(uuid.New(), date)

	err := e.Upsert(instance.ExceptionCancelled, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
}
