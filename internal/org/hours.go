package org

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DaySchedule is one weekday of the operating-hours configuration. Open and
// Close are "HH:MM" strings compared lexicographically.
type DaySchedule struct {
	Open   string
	Close  string
	Closed bool

	// closedSet records whether the source JSON carried the "closed" key.
	// A day without it is treated as malformed by Valid.
	closedSet bool
}

func (d *DaySchedule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Open   string `json:"open"`
		Close  string `json:"close"`
		Closed *bool  `json:"closed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Open = raw.Open
	d.Close = raw.Close
	if raw.Closed != nil {
		d.Closed = *raw.Closed
		d.closedSet = true
	}
	return nil
}

func (d DaySchedule) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Open   string `json:"open,omitempty"`
		Close  string `json:"close,omitempty"`
		Closed bool   `json:"closed"`
	}{d.Open, d.Close, d.Closed})
}

// OperatingHours holds the per-weekday schedule keyed by the English
// weekday names used in the settings JSONB.
type OperatingHours map[string]*DaySchedule

var weekdayKeys = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

var weekdayNamesPT = map[string]string{
	"sunday":    "Domingo",
	"monday":    "Segunda-feira",
	"tuesday":   "Terça-feira",
	"wednesday": "Quarta-feira",
	"thursday":  "Quinta-feira",
	"friday":    "Sexta-feira",
	"saturday":  "Sábado",
}

var weekdayNamesPluralPT = map[string]string{
	"sunday":    "domingos",
	"monday":    "segundas-feiras",
	"tuesday":   "terças-feiras",
	"wednesday": "quartas-feiras",
	"thursday":  "quintas-feiras",
	"friday":    "sextas-feiras",
	"saturday":  "sábados",
}

// DayKey maps a date to its schedule key (Sunday=0 convention).
func DayKey(date time.Time) string {
	return weekdayKeys[int(date.Weekday())]
}

// DayNamePT returns the Portuguese weekday name for a schedule key.
func DayNamePT(key string) string {
	if name, ok := weekdayNamesPT[key]; ok {
		return name
	}
	return key
}

// DayNamePluralPT returns the plural form used in closed-day messages
// ("estamos fechados às segundas-feiras").
func DayNamePluralPT(key string) string {
	if name, ok := weekdayNamesPluralPT[key]; ok {
		return name
	}
	return key
}

// Valid reports whether all seven weekday keys are present and each carries
// the closed flag. Partial schedules are rejected wholesale so the prompt
// never renders garbled hours.
func (h OperatingHours) Valid() bool {
	if h == nil {
		return false
	}
	for _, key := range weekdayKeys {
		day, ok := h[key]
		if !ok || day == nil || !day.closedSet {
			return false
		}
	}
	return true
}

// Format renders the schedule as a prompt-ready block, Monday first.
func (h OperatingHours) Format() string {
	order := []string{
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	}
	var b strings.Builder
	for _, key := range order {
		day, ok := h[key]
		if !ok || day == nil {
			continue
		}
		if day.Closed {
			fmt.Fprintf(&b, "- %s: Fechado\n", DayNamePT(key))
		} else {
			fmt.Fprintf(&b, "- %s: %s às %s\n", DayNamePT(key), day.Open, day.Close)
		}
	}
	return b.String()
}

// Day builds a well-formed schedule entry (closed flag present).
func Day(open, close string, closed bool) *DaySchedule {
	return &DaySchedule{Open: open, Close: close, Closed: closed, closedSet: true}
}
