package utils

import (
	"testing"
	"time"

	"pipeline-monitor/src/models"
)

func fallbackCalendar(start, end int) *BusinessCalendar {
	return &BusinessCalendar{
		Fallback: true,
		Timezone: time.UTC,
		Hours:    models.MBusinessHours{Start: start, End: end},
	}
}

func TestFallbackBusinessDay(t *testing.T) {
	bc := fallbackCalendar(9, 17)

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"tuesday", time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC), true},
		{"saturday", time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), false},
		{"monday", time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bc.IsBusinessDay(tt.date); got != tt.want {
				t.Errorf("IsBusinessDay(%s) = %v, want %v", tt.date.Weekday(), got, tt.want)
			}
		})
	}
}

func TestFallbackBusinessHours(t *testing.T) {
	bc := fallbackCalendar(9, 17)
	tuesday := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		hour int
		want bool
	}{
		{"before open", 8, false},
		{"at open", 9, true},
		{"midday", 12, true},
		{"last open hour", 16, true},
		{"at close", 17, false},
		{"evening", 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tuesday.Add(time.Duration(tt.hour) * time.Hour)
			if got := bc.IsBusinessHours(at); got != tt.want {
				t.Errorf("IsBusinessHours(%02d:00) = %v, want %v", tt.hour, got, tt.want)
			}
		})
	}

	// Weekend hours never count, open window or not
	saturdayNoon := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	if bc.IsBusinessHours(saturdayNoon) {
		t.Error("saturday noon should not be business hours")
	}
}

func TestGetCalendarNormalizesHours(t *testing.T) {
	// An inverted window is replaced with the 9-17 default
	bc := GetCalendar("xnys", models.MBusinessHours{Start: 17, End: 9})
	if bc.Hours.Start != 9 || bc.Hours.End != 17 {
		t.Errorf("hours = %+v, want 9-17", bc.Hours)
	}

	bc = GetCalendar("xnys", models.MBusinessHours{Start: 8, End: 20})
	if bc.Hours.Start != 8 || bc.Hours.End != 20 {
		t.Errorf("hours = %+v, want 8-20", bc.Hours)
	}
}

func TestGetCalendarUnknownMIC(t *testing.T) {
	bc := GetCalendar("definitely-not-a-mic", models.MBusinessHours{Start: 9, End: 17})
	if bc == nil {
		t.Fatal("calendar should never be nil")
	}
	// Either the xnys fallback loaded or the weekday fallback engaged;
	// both must answer the day question without panicking.
	_ = bc.IsBusinessDay(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))
}
