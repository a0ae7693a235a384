package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"

	"pipeline-monitor/src/models"
)

// BusinessCalendar decides when the shop is considered open. The alerting
// policy uses it to quiet volume-driven alerts on holidays and overnight.
type BusinessCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
	Hours    models.MBusinessHours
}

// -----------------------------------------------------------------------------

// GetCalendar loads the holiday calendar for a MIC code (ISO 10383, see
// scmhub/calendar for supported MICs). Unknown codes fall back to xnys, and
// when that fails too, to plain Mon-Fri weekday logic.
func GetCalendar(mic string, hours models.MBusinessHours) *BusinessCalendar {
	if hours.End <= hours.Start {
		hours = models.MBusinessHours{Start: 9, End: 17}
	}

	cal := calendar.GetCalendar(strings.ToLower(mic))
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s' and fallback 'xnys'. Using simple fallback (Mon-Fri %02d:00-%02d:00 local).", mic, hours.Start, hours.End)
		return &BusinessCalendar{Fallback: true, Timezone: time.Local, Hours: hours}
	}

	return &BusinessCalendar{Calendar: cal, Fallback: false, Timezone: cal.Loc, Hours: hours}
}

// -----------------------------------------------------------------------------

func (bc *BusinessCalendar) IsBusinessDay(date time.Time) bool {
	// Normalize to timezone if available
	if bc.Timezone != nil {
		date = date.In(bc.Timezone)
	}

	if bc.Fallback {
		// Simple fallback: Mon-Fri
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	// Library handles IsHoliday / IsBusinessDay
	return bc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsBusinessHours checks whether t falls on a business day inside the
// configured open window. The hour window comes from config, not from the
// exchange session, since shops keep their own hours.
func (bc *BusinessCalendar) IsBusinessHours(t time.Time) bool {
	if !bc.IsBusinessDay(t) {
		return false
	}

	if bc.Timezone != nil {
		t = t.In(bc.Timezone)
	}

	hour := t.Hour()
	return hour >= bc.Hours.Start && hour < bc.Hours.End
}
