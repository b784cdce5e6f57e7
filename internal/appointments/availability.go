package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/oxypet/petcare-ai-platform/internal/org"
	"github.com/oxypet/petcare-ai-platform/pkg/logging"
)

// SlotMinutes is the booking grid granularity.
const SlotMinutes = 30

// OpenCheck is the outcome of an operating-hours check. When Open is false,
// Reason carries the customer-facing explanation.
type OpenCheck struct {
	Open   bool
	Reason string
}

type hoursProvider interface {
	GetOperatingHours(ctx context.Context, orgID string) (org.OperatingHours, error)
}

// HoursChecker validates requested times against the org's operating hours.
//
// FailOpen controls what happens when the schedule cannot be read or is
// malformed: true lets the booking through (a human confirms it later),
// false rejects it. Missing weekday entries always admit the booking
// regardless of the flag, matching how orgs leave unset days unrestricted.
type HoursChecker struct {
	provider hoursProvider
	logger   *logging.Logger

	FailOpen bool
}

// NewHoursChecker wires an hours source into a checker.
func NewHoursChecker(provider hoursProvider, logger *logging.Logger, failOpen bool) *HoursChecker {
	if provider == nil {
		panic("appointments: hours provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HoursChecker{provider: provider, logger: logger, FailOpen: failOpen}
}

// Check validates a requested start time against the org's schedule.
func (h *HoursChecker) Check(ctx context.Context, orgID string, at time.Time) (OpenCheck, error) {
	hours, err := h.provider.GetOperatingHours(ctx, orgID)
	if err != nil {
		h.logger.Warn("operating hours lookup failed",
			"org_id", orgID, "fail_open", h.FailOpen, "error", err)
		if h.FailOpen {
			return OpenCheck{Open: true}, nil
		}
		return OpenCheck{}, fmt.Errorf("appointments: check hours: %w", err)
	}
	return CheckOpen(hours, at), nil
}

// CheckOpen evaluates a start time against a schedule. A day with no entry
// admits the time. Comparison is lexicographic on "HH:MM": exactly the open
// time is accepted, exactly the close time is not.
func CheckOpen(hours org.OperatingHours, at time.Time) OpenCheck {
	key := org.DayKey(at)
	day, ok := hours[key]
	if !ok || day == nil {
		return OpenCheck{Open: true}
	}
	if day.Closed {
		return OpenCheck{
			Reason: fmt.Sprintf("Desculpe, estamos fechados às %s.", org.DayNamePluralPT(key)),
		}
	}
	// No times configured on an open day: assume open.
	if day.Open == "" || day.Close == "" {
		return OpenCheck{Open: true}
	}
	t := at.Format("15:04")
	if t < day.Open || t >= day.Close {
		return OpenCheck{
			Reason: fmt.Sprintf("Nosso horário de funcionamento é das %s às %s.", day.Open, day.Close),
		}
	}
	return OpenCheck{Open: true}
}

// Slot is one offerable window on the booking grid.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Label renders the slot start as "HH:MM".
func (s Slot) Label() string {
	return s.Start.Format("15:04")
}

// FreeSlots walks the day's 30-minute grid between open and close, dropping
// any start whose service run (start plus durationMinutes) overlaps a
// pending or confirmed booking. Non-positive durations fall back to 60
// minutes. A closed or unconfigured day yields no slots; missing times
// default to the 09:00-18:00 commercial day.
func FreeSlots(day time.Time, hours org.OperatingHours, busy []Appointment, durationMinutes int) []Slot {
	sched, ok := hours[org.DayKey(day)]
	if !ok || sched == nil || sched.Closed {
		return nil
	}
	if durationMinutes <= 0 {
		durationMinutes = 60
	}
	openAt, closeAt := sched.Open, sched.Close
	if openAt == "" {
		openAt = "09:00"
	}
	if closeAt == "" {
		closeAt = "18:00"
	}
	openMin, err := parseClock(openAt)
	if err != nil {
		return nil
	}
	closeMin, err := parseClock(closeAt)
	if err != nil {
		return nil
	}

	var slots []Slot
	for m := openMin; m < closeMin; m += SlotMinutes {
		start := time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, day.Location())
		slot := Slot{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
		if !overlapsAny(slot, busy) {
			slots = append(slots, slot)
		}
	}
	return slots
}

func overlapsAny(s Slot, busy []Appointment) bool {
	for _, b := range busy {
		bStart, bEnd := b.ScheduledAt, b.End()
		startsInside := !s.Start.Before(bStart) && s.Start.Before(bEnd)
		endsInside := s.End.After(bStart) && !s.End.After(bEnd)
		contains := s.Start.Before(bStart) && s.End.After(bEnd)
		if startsInside || endsInside || contains {
			return true
		}
	}
	return false
}

func parseClock(v string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(v, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("appointments: parse clock %q: %w", v, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("appointments: clock %q out of range", v)
	}
	return h*60 + m, nil
}
