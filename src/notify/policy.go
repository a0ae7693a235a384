package notify

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/utils"
)

// volumeKinds are the anomalies expected to fire on quiet days anyway. With
// quiet_holidays on they are suppressed outside business hours; payment and
// inventory faults always pass.
var volumeKinds = map[string]bool{
	models.KindOrderVolume:     true,
	models.KindUniqueCustomers: true,
	models.KindVolumeDeviation: true,
}

// Policy decides which anomalies become alerts: a severity floor, a per
// fingerprint cooldown on delivered alerts, and calendar suppression for
// volume-driven kinds.
type Policy struct {
	MinSeverity   string
	Cooldown      time.Duration
	QuietHolidays bool
	Calendar      *utils.BusinessCalendar
	Logger        *logger.Logger

	lastDelivered map[uint64]time.Time
	mu            sync.Mutex

	// now is swappable in tests.
	now func() time.Time
}

// -----------------------------------------------------------------------------

func NewPolicy(config *models.MConfig) *Policy {
	return &Policy{
		MinSeverity:   config.Alerting.MinSeverity,
		Cooldown:      time.Duration(config.Alerting.CooldownMinutes) * time.Minute,
		QuietHolidays: config.Alerting.QuietHolidays,
		Calendar:      utils.GetCalendar(config.Alerting.CalendarMIC, config.Alerting.BusinessHours),
		Logger:        logger.NewLogger(config.LogLevel, "alert-policy"),
		lastDelivered: make(map[uint64]time.Time),
		now:           time.Now,
	}
}

// -----------------------------------------------------------------------------

// Fingerprint identifies an anomaly stream for cooldown purposes. Two
// anomalies of the same kind in the same domain share a fingerprint no
// matter their values.
func Fingerprint(a models.MAnomaly) uint64 {
	return xxhash.Sum64String(a.Domain + "|" + a.Kind)
}

// -----------------------------------------------------------------------------

// Admit reports whether the anomaly should be delivered, and the suppression
// reason when it should not.
func (p *Policy) Admit(a models.MAnomaly) (bool, string) {
	if models.SeverityRank(a.Severity) < models.SeverityRank(p.MinSeverity) {
		return false, "below severity floor"
	}

	now := p.now()
	if p.QuietHolidays && volumeKinds[a.Kind] && !p.Calendar.IsBusinessHours(now) {
		return false, "outside business hours"
	}

	if p.Cooldown > 0 {
		p.mu.Lock()
		last, seen := p.lastDelivered[Fingerprint(a)]
		p.mu.Unlock()
		if seen && now.Sub(last) < p.Cooldown {
			return false, "cooldown active"
		}
	}

	return true, ""
}

// -----------------------------------------------------------------------------

// MarkDelivered starts the cooldown window for a fingerprint. Only called
// after a successful delivery, so failed sends retry on the next anomaly.
func (p *Policy) MarkDelivered(fingerprint uint64) {
	p.mu.Lock()
	p.lastDelivered[fingerprint] = p.now()
	p.mu.Unlock()
}
