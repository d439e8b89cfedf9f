package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/tenant"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// sortEvents orders events chronologically; at equal instants Enter sorts before Exit so a
// zero-length visit still pairs up.
func sortEvents(events []attendance.PresenceEvent) []attendance.PresenceEvent {
	sorted := make([]attendance.PresenceEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.OccurredAt.Equal(b.OccurredAt) {
			return a.OccurredAt.Before(b.OccurredAt)
		}
		if a.Kind != b.Kind {
			return a.Kind == attendance.EventKindEnter
		}
		return a.ID < b.ID
	})
	return sorted
}

// TimeOnSite pairs one employee's events at one site for one day. Noise events are ignored.
// A repeated Enter while a session is open keeps the first Enter, an Exit without an open
// session is ignored, and an Enter left open at the end is truncated at cutoff (never
// before the Enter itself).
func TimeOnSite(events []attendance.PresenceEvent, cutoff time.Time) attendance.Session {
	var (
		session attendance.Session
		openAt  *time.Time
	)

	for _, e := range sortEvents(events) {
		if e.IsNoise {
			continue
		}
		at := e.OccurredAt

		switch e.Kind {
		case attendance.EventKindEnter:
			session.EnterCount++
			if session.FirstEntryAt == nil {
				session.FirstEntryAt = &at
			}
			if openAt == nil {
				openAt = &at
			}
		case attendance.EventKindExit:
			if openAt == nil {
				continue
			}
			session.TimeOnSite += at.Sub(*openAt)
			session.LastExitAt = &at
			openAt = nil
		}
	}

	if openAt != nil {
		session.Open = true
		if cutoff.After(*openAt) {
			session.TimeOnSite += cutoff.Sub(*openAt)
		}
	}

	return session
}

// LastEventAt returns the latest non-noise event instant, or the zero time.
func LastEventAt(events []attendance.PresenceEvent) time.Time {
	var last time.Time
	for _, e := range events {
		if e.IsNoise {
			continue
		}
		if e.OccurredAt.After(last) {
			last = e.OccurredAt
		}
	}
	return last
}

// SessionCutoff returns the instant an open session of the given day is truncated at.
func SessionCutoff(cfg tenant.Config, events []attendance.PresenceEvent, date time.Time, now time.Time) time.Time {
	switch cfg.OpenSessionPolicy {
	case tenant.OpenSessionDayEnd:
		_, end := cfg.DayBounds(date)
		if now.Before(end) {
			return now
		}
		return end
	default:
		return LastEventAt(events)
	}
}

// IsWorkingDay reports whether date counts as a working day for the tenant.
func IsWorkingDay(cfg tenant.Config, date time.Time) bool {
	if !cfg.IncludeWeekends {
		switch date.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}
	return !cfg.IsHoliday(date)
}

// WorkingDaysBetween counts working days in [from, to], both inclusive.
func WorkingDaysBetween(cfg tenant.Config, from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	count := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsWorkingDay(cfg, d) {
			count++
		}
	}
	return count
}

// Utilization returns actual/expected as a percentage rounded to 2 places. A non-positive
// expected value yields 0.
func Utilization(actualHours, expectedHours decimal.Decimal) decimal.Decimal {
	if !expectedHours.IsPositive() {
		return decimal.Zero
	}
	return actualHours.Div(expectedHours).Mul(hundred).Round(2)
}

func durationToHours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(3600)).Round(2)
}

func classify(cfg tenant.Config, session attendance.Session, expected, utilization decimal.Decimal) attendance.SummaryStatus {
	switch {
	case session.EnterCount == 0:
		return attendance.SummaryStatusAbsent
	case session.Open:
		return attendance.SummaryStatusIncomplete
	case !expected.IsPositive():
		return attendance.SummaryStatusExcellent
	case utilization.GreaterThanOrEqual(cfg.ExcellentThresholdPercent):
		return attendance.SummaryStatusExcellent
	case utilization.GreaterThanOrEqual(cfg.GoodThresholdPercent):
		return attendance.SummaryStatusGood
	default:
		return attendance.SummaryStatusBelowTarget
	}
}

// BuildSummary computes the daily summary of one (employee, site) pair from all of that
// pair's events on date.
func BuildSummary(cfg tenant.Config, key attendance.PairKey, date time.Time, events []attendance.PresenceEvent, now time.Time) attendance.DailySummary {
	session := TimeOnSite(events, SessionCutoff(cfg, events, date, now))

	expected := decimal.Zero
	if IsWorkingDay(cfg, date) {
		expected = cfg.ExpectedHoursPerDay
	}
	actual := durationToHours(session.TimeOnSite)
	utilization := Utilization(actual, expected)

	return attendance.DailySummary{
		CompanyID:          cfg.CompanyID,
		EmployeeID:         key.EmployeeID,
		SiteID:             key.SiteID,
		Date:               date,
		FirstEntryAt:       session.FirstEntryAt,
		LastExitAt:         session.LastExitAt,
		TimeOnSiteMinutes:  int(session.TimeOnSite / time.Minute),
		ActualHours:        actual,
		ExpectedHours:      expected,
		UtilizationPercent: utilization,
		VarianceHours:      actual.Sub(expected),
		Status:             classify(cfg, session, expected, utilization),
		EventCount:         len(events),
	}
}
