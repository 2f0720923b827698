package domain_test

import (
	"testing"

	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/motioneffector/autoplanner/internal/series/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReminderRejectsNegativeLead(t *testing.T) {
	_, err := domain.NewReminder(uuid.New(), -1)
	assert.ErrorIs(t, err, domain.ErrReminderLeadNegative)
}

func TestFireTimeZeroMinutesBeforeFiresAtInstanceTime(t *testing.T) {
	r, err := domain.NewReminder(uuid.New(), 0)
	require.NoError(t, err)

	start := timegrid.NewLocalDateTime(timegrid.LocalDate{Year: 2026, Month: 1, Day: 1}, timegrid.LocalTime{Hour: 9})
	assert.Equal(t, start, r.FireTime(start, false))
}

func TestFireTimeAllDayUsesMidnightOfPreviousDay(t *testing.T) {
	r, err := domain.NewReminder(uuid.New(), 1440)
	require.NoError(t, err)

	instanceStart := timegrid.NewLocalDateTime(timegrid.LocalDate{Year: 2026, Month: 1, Day: 2}, timegrid.LocalTime{})
	got := r.FireTime(instanceStart, true)

	want := timegrid.NewLocalDateTime(timegrid.LocalDate{Year: 2026, Month: 1, Day: 1}, timegrid.LocalTime{})
	assert.Equal(t, want, got)
}
