// Package engine drives the simulation one day at a time and applies player
// actions to the game state.
package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// Calendar layout.
const (
	DaysPerWeek   = 7
	DaysPerSeason = 90
	DaysPerYear   = 4 * DaysPerSeason
)

// Epoch is the game time of day 0.
var Epoch = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

// Calendar counts simulated days. It never advances on its own; a driver calls
// Advance.
type Calendar struct {
	Day uint64 // Last day processed

	// Callbacks, populated during setup.
	OnDay    func(day uint64)
	OnWeek   func(day uint64) // Every 7 days
	OnSeason func(day uint64) // Every 90 days
}

// NewCalendar creates a calendar that resumes after day.
func NewCalendar(day uint64) *Calendar {
	return &Calendar{Day: day}
}

// Advance processes n days.
func (c *Calendar) Advance(n int) {
	start := c.Day
	for i := 0; i < n; i++ {
		c.step()
	}
	slog.Debug("calendar advanced", "from", start, "to", c.Day, "date", SimDate(c.Day))
}

func (c *Calendar) step() {
	c.Day++

	if c.OnDay != nil {
		c.OnDay(c.Day)
	}
	if c.Day%DaysPerWeek == 0 && c.OnWeek != nil {
		c.OnWeek(c.Day)
	}
	if c.Day%DaysPerSeason == 0 && c.OnSeason != nil {
		c.OnSeason(c.Day)
	}
}

// SimDate returns a human-readable date for a day number. Day 1 is the first
// day of spring in year 1.
func SimDate(day uint64) string {
	if day > 0 {
		day--
	}
	dayOfSeason := day%DaysPerSeason + 1
	seasons := day / DaysPerSeason
	season := seasons % 4
	year := seasons/4 + 1

	seasonNames := [4]string{"Spring", "Summer", "Autumn", "Winter"}
	return fmt.Sprintf("%s Day %d, Year %d", seasonNames[season], dayOfSeason, year)
}

// GameTime maps a day number onto a timestamp for messages and records.
func GameTime(day uint64) time.Time {
	return Epoch.AddDate(0, 0, int(day))
}
