package entities

import (
	"testing"
	"time"

	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

func fullWeekSchedule(t *testing.T) []DaySchedule {
	t.Helper()
	schedule := make([]DaySchedule, 7)
	for dow := 0; dow < 7; dow++ {
		schedule[dow] = DaySchedule{
			DayOfWeek: dow,
			Available: true,
			WorkingHours: []WorkingHour{
				{Window: mustWindow(t, "09:00", "12:00"), Available: true},
				{Window: mustWindow(t, "14:00", "18:00"), Available: true},
			},
		}
	}
	return schedule
}

func mustWindow(t *testing.T, start, end string) valueobjects.TimeWindow {
	t.Helper()
	w, err := valueobjects.ParseTimeWindow(start, end)
	if err != nil {
		t.Fatalf("ParseTimeWindow(%s, %s): %v", start, end, err)
	}
	return w
}

// TestNewTrainer_ScheduleValidation tests the 7-day shape rules
func TestNewTrainer_ScheduleValidation(t *testing.T) {
	t.Run("valid schedule", func(t *testing.T) {
		if _, err := NewTrainer("Alex Ng", fullWeekSchedule(t)); err != nil {
			t.Fatalf("NewTrainer() error = %v", err)
		}
	})

	t.Run("too few days", func(t *testing.T) {
		if _, err := NewTrainer("Alex Ng", fullWeekSchedule(t)[:6]); err == nil {
			t.Error("6-day schedule should fail")
		}
	})

	t.Run("duplicate day", func(t *testing.T) {
		schedule := fullWeekSchedule(t)
		schedule[6].DayOfWeek = 0
		if _, err := NewTrainer("Alex Ng", schedule); err == nil {
			t.Error("duplicate day-of-week should fail")
		}
	})

	t.Run("day out of range", func(t *testing.T) {
		schedule := fullWeekSchedule(t)
		schedule[3].DayOfWeek = 7
		if _, err := NewTrainer("Alex Ng", schedule); err == nil {
			t.Error("day 7 should fail")
		}
	})
}

// TestTrainer_WorksWindow tests the schedule half of the availability check
func TestTrainer_WorksWindow(t *testing.T) {
	trainer, err := NewTrainer("Alex Ng", fullWeekSchedule(t))
	if err != nil {
		t.Fatal(err)
	}
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) // a Monday

	tests := []struct {
		name   string
		window valueobjects.TimeWindow
		want   bool
	}{
		{"inside morning block", mustWindow(t, "10:00", "11:00"), true},
		{"exact morning block", mustWindow(t, "09:00", "12:00"), true},
		{"spans the lunch gap", mustWindow(t, "11:00", "15:00"), false},
		{"before opening", mustWindow(t, "07:00", "08:00"), false},
		{"touching block start", mustWindow(t, "14:00", "15:00"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trainer.WorksWindow(monday, tt.window); got != tt.want {
				t.Errorf("WorksWindow(%s) = %v, want %v", tt.window, got, tt.want)
			}
		})
	}
}

// TestTrainer_WorksWindow_DayOff tests the per-day flag
func TestTrainer_WorksWindow_DayOff(t *testing.T) {
	schedule := fullWeekSchedule(t)
	schedule[0].Available = false // Sundays off
	trainer, err := NewTrainer("Alex Ng", schedule)
	if err != nil {
		t.Fatal(err)
	}

	sunday := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	if trainer.WorksWindow(sunday, mustWindow(t, "10:00", "11:00")) {
		t.Error("day off should not be bookable")
	}
}

// TestTrainer_ConsumeSlot tests the exact-match advisory flag
func TestTrainer_ConsumeSlot(t *testing.T) {
	trainer, err := NewTrainer("Alex Ng", fullWeekSchedule(t))
	if err != nil {
		t.Fatal(err)
	}
	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// Partial fit does not flip anything
	if trainer.ConsumeSlot(monday, mustWindow(t, "10:00", "11:00")) {
		t.Error("non-exact window should not consume a slot")
	}

	// Exact match flips once
	if !trainer.ConsumeSlot(monday, mustWindow(t, "09:00", "12:00")) {
		t.Fatal("exact window should consume the slot")
	}
	if trainer.ConsumeSlot(monday, mustWindow(t, "09:00", "12:00")) {
		t.Error("already-consumed slot should not flip again")
	}

	// Other days are untouched
	tuesday := monday.AddDate(0, 0, 1)
	if !trainer.ConsumeSlot(tuesday, mustWindow(t, "09:00", "12:00")) {
		t.Error("same slot on another day should still be available")
	}
}
