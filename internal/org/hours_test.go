package org

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatingHoursUnmarshal(t *testing.T) {
	raw := `{
		"monday":    {"open": "08:00", "close": "18:00", "closed": false},
		"tuesday":   {"open": "08:00", "close": "18:00", "closed": false},
		"wednesday": {"open": "08:00", "close": "18:00", "closed": false},
		"thursday":  {"open": "08:00", "close": "18:00", "closed": false},
		"friday":    {"open": "08:00", "close": "18:00", "closed": false},
		"saturday":  {"open": "09:00", "close": "13:00", "closed": false},
		"sunday":    {"closed": true}
	}`

	var hours OperatingHours
	require.NoError(t, json.Unmarshal([]byte(raw), &hours))
	assert.True(t, hours.Valid())
	assert.Equal(t, "08:00", hours["monday"].Open)
	assert.True(t, hours["sunday"].Closed)
}

func TestOperatingHoursValid(t *testing.T) {
	t.Run("nil map", func(t *testing.T) {
		var hours OperatingHours
		assert.False(t, hours.Valid())
	})

	t.Run("missing weekday", func(t *testing.T) {
		raw := `{"monday": {"open": "08:00", "close": "18:00", "closed": false}}`
		var hours OperatingHours
		require.NoError(t, json.Unmarshal([]byte(raw), &hours))
		assert.False(t, hours.Valid())
	})

	t.Run("closed flag absent", func(t *testing.T) {
		raw := `{
			"monday":    {"open": "08:00", "close": "18:00"},
			"tuesday":   {"open": "08:00", "close": "18:00", "closed": false},
			"wednesday": {"open": "08:00", "close": "18:00", "closed": false},
			"thursday":  {"open": "08:00", "close": "18:00", "closed": false},
			"friday":    {"open": "08:00", "close": "18:00", "closed": false},
			"saturday":  {"open": "09:00", "close": "13:00", "closed": false},
			"sunday":    {"closed": true}
		}`
		var hours OperatingHours
		require.NoError(t, json.Unmarshal([]byte(raw), &hours))
		assert.False(t, hours.Valid())
	})
}

func TestOperatingHoursFormat(t *testing.T) {
	hours := OperatingHours{
		"monday": Day("08:00", "18:00", false),
		"sunday": Day("", "", true),
	}
	got := hours.Format()
	assert.Contains(t, got, "- Segunda-feira: 08:00 às 18:00")
	assert.Contains(t, got, "- Domingo: Fechado")
	// Monday-first ordering.
	assert.Less(t, strings.Index(got, "Segunda-feira"), strings.Index(got, "Domingo"))
}

func TestDayKey(t *testing.T) {
	// 2025-06-01 was a Sunday.
	sunday := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "sunday", DayKey(sunday))
	assert.Equal(t, "monday", DayKey(sunday.AddDate(0, 0, 1)))
	assert.Equal(t, "saturday", DayKey(sunday.AddDate(0, 0, 6)))
}

func TestDayNames(t *testing.T) {
	assert.Equal(t, "Quarta-feira", DayNamePT("wednesday"))
	assert.Equal(t, "segundas-feiras", DayNamePluralPT("monday"))
	// Unknown keys pass through instead of rendering empty.
	assert.Equal(t, "someday", DayNamePT("someday"))
}
