package application

import (
	"context"
	"testing"
	"time"

	"github.com/motioneffector/autoplanner/internal/reflow"
	"github.com/motioneffector/autoplanner/internal/reflow/timegrid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScheduleLookup returns a fixed ReflowOutput regardless of window,
// standing in for a façade hydrated against a single day of instances.
type fakeScheduleLookup struct {
	instances []reflow.ScheduledInstance
	err       error
}

func (f *fakeScheduleLookup) Schedule(ctx context.Context, userID uuid.UUID, windowStart, windowEnd timegrid.LocalDate) (reflow.ReflowOutput, error) {
	if f.err != nil {
		return reflow.ReflowOutput{}, f.err
	}
	return reflow.ReflowOutput{Instances: f.instances}, nil
}

func instanceAt(today time.Time, startHour, endHour int) reflow.ScheduledInstance {
	date := timegrid.LocalDateFromTime(today)
	start := timegrid.NewLocalDateTime(date, timegrid.LocalTime{Hour: startHour})
	return reflow.ScheduledInstance{
		SeriesID: "focus-series",
		Date:     date,
		Start:    start,
		Duration: (endHour - startHour) * 60,
		Title:    "Focus Time",
	}
}

func TestConflictDetector_CheckConflicts(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		instances      []reflow.ScheduledInstance
		event          CalendarEvent
		expectConflict bool
	}{
		{
			name:      "no conflict when no instances exist",
			instances: nil,
			event: CalendarEvent{
				ID:        "external-1",
				Summary:   "External Meeting",
				StartTime: today.Add(10 * time.Hour),
				EndTime:   today.Add(11 * time.Hour),
			},
			expectConflict: false,
		},
		{
			name:      "conflict when event overlaps instance",
			instances: []reflow.ScheduledInstance{instanceAt(today, 10, 12)},
			event: CalendarEvent{
				ID:        "external-2",
				Summary:   "External Meeting",
				StartTime: today.Add(11 * time.Hour),
				EndTime:   today.Add(13 * time.Hour),
			},
			expectConflict: true,
		},
		{
			name:      "no conflict when event is before instance",
			instances: []reflow.ScheduledInstance{instanceAt(today, 14, 16)},
			event: CalendarEvent{
				ID:        "external-3",
				Summary:   "Morning Meeting",
				StartTime: today.Add(9 * time.Hour),
				EndTime:   today.Add(10 * time.Hour),
			},
			expectConflict: false,
		},
		{
			name:      "no conflict when event is after instance",
			instances: []reflow.ScheduledInstance{instanceAt(today, 9, 10)},
			event: CalendarEvent{
				ID:        "external-4",
				Summary:   "Afternoon Meeting",
				StartTime: today.Add(14 * time.Hour),
				EndTime:   today.Add(15 * time.Hour),
			},
			expectConflict: false,
		},
		{
			name:      "conflict when event completely contains instance",
			instances: []reflow.ScheduledInstance{instanceAt(today, 10, 11)},
			event: CalendarEvent{
				ID:        "external-5",
				Summary:   "Long Meeting",
				StartTime: today.Add(9 * time.Hour),
				EndTime:   today.Add(12 * time.Hour),
			},
			expectConflict: true,
		},
		{
			name:      "conflict when instance completely contains event",
			instances: []reflow.ScheduledInstance{instanceAt(today, 9, 17)},
			event: CalendarEvent{
				ID:        "external-6",
				Summary:   "Quick Meeting",
				StartTime: today.Add(11 * time.Hour),
				EndTime:   today.Add(12 * time.Hour),
			},
			expectConflict: true,
		},
		{
			name:      "no conflict when events are adjacent",
			instances: []reflow.ScheduledInstance{instanceAt(today, 10, 11)},
			event: CalendarEvent{
				ID:        "external-7",
				Summary:   "Next Meeting",
				StartTime: today.Add(11 * time.Hour), // starts exactly when instance ends
				EndTime:   today.Add(12 * time.Hour),
			},
			expectConflict: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detector := NewConflictDetector(&fakeScheduleLookup{instances: tt.instances}, nil)

			result, err := detector.CheckConflicts(context.Background(), userID, tt.event)

			require.NoError(t, err)
			assert.Equal(t, tt.expectConflict, result.HasConflict)

			if tt.expectConflict {
				assert.NotNil(t, result.ConflictingInstance)
				assert.Equal(t, tt.event.ID, result.ExternalEventID)
			}
		})
	}
}

func TestConflictDetectorHandler_HandleConflict(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	detector := NewConflictDetector(&fakeScheduleLookup{
		instances: []reflow.ScheduledInstance{instanceAt(today, 10, 12)},
	}, nil)

	conflictingEvent := CalendarEvent{
		ID:        "conflict-event",
		Summary:   "Conflicting Meeting",
		StartTime: today.Add(11 * time.Hour),
		EndTime:   today.Add(13 * time.Hour),
	}

	nonConflictingEvent := CalendarEvent{
		ID:        "non-conflict-event",
		Summary:   "Safe Meeting",
		StartTime: today.Add(14 * time.Hour),
		EndTime:   today.Add(15 * time.Hour),
	}

	tests := []struct {
		name        string
		mode        string
		event       CalendarEvent
		expectError bool
	}{
		{
			name:        "skip mode returns error on conflict",
			mode:        "skip",
			event:       conflictingEvent,
			expectError: true,
		},
		{
			name:        "skip mode allows non-conflicting event",
			mode:        "skip",
			event:       nonConflictingEvent,
			expectError: false,
		},
		{
			name:        "record mode allows conflicting event",
			mode:        "record",
			event:       conflictingEvent,
			expectError: false,
		},
		{
			name:        "fail mode returns error on conflict",
			mode:        "fail",
			event:       conflictingEvent,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewConflictDetectorHandler(detector, userID, tt.mode)

			err := handler.HandleConflict(context.Background(), tt.event, nil)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConflictDetector_BatchConflictCheck(t *testing.T) {
	userID := uuid.New()
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	detector := NewConflictDetector(&fakeScheduleLookup{
		instances: []reflow.ScheduledInstance{instanceAt(today, 10, 12)},
	}, nil)

	events := []CalendarEvent{
		{
			ID:        "event-1",
			Summary:   "Morning Meeting",
			StartTime: today.Add(8 * time.Hour),
			EndTime:   today.Add(9 * time.Hour),
		},
		{
			ID:        "event-2",
			Summary:   "Conflicting Meeting",
			StartTime: today.Add(11 * time.Hour),
			EndTime:   today.Add(13 * time.Hour),
		},
		{
			ID:        "event-3",
			Summary:   "Afternoon Meeting",
			StartTime: today.Add(14 * time.Hour),
			EndTime:   today.Add(15 * time.Hour),
		},
	}

	conflicting, nonConflicting, err := detector.BatchConflictCheck(context.Background(), userID, events)

	require.NoError(t, err)
	assert.Len(t, conflicting, 1)
	assert.Len(t, nonConflicting, 2)
	assert.Equal(t, "event-2", conflicting[0].ID)
}

func TestConflictDetector_NilScheduleLookup(t *testing.T) {
	detector := NewConflictDetector(nil, nil)

	result, err := detector.CheckConflicts(context.Background(), uuid.New(), CalendarEvent{
		ID:        "test-event",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	})

	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}
