// Package calendar decides which calendar day an instant belongs to. Every
// daily limit in the bot (bonus, spin, quiz, send cap) reads days from the
// same Calendar so they roll over together.
package calendar

import (
	"fmt"
	"sync"
	"time"
)

const DayLayout = "2006-01-02"

type Calendar struct {
	loc *time.Location

	mu  sync.RWMutex
	now func() time.Time
}

func New(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{loc: loc, now: time.Now}
}

// Load resolves an IANA zone name; empty means UTC.
func Load(name string) (*Calendar, error) {
	if name == "" {
		return New(time.UTC), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return New(loc), nil
}

// SetClock replaces the time source. Used by tests and the audit command.
func (c *Calendar) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Now returns the current instant in UTC, which is how timestamps are stored.
func (c *Calendar) Now() time.Time {
	c.mu.RLock()
	now := c.now
	c.mu.RUnlock()
	return now().UTC()
}

func (c *Calendar) DayOf(t time.Time) string {
	return t.In(c.loc).Format(DayLayout)
}

func (c *Calendar) Today() string {
	return c.DayOf(c.Now())
}

func (c *Calendar) Yesterday() string {
	return c.Now().In(c.loc).AddDate(0, 0, -1).Format(DayLayout)
}

// Bounds returns the UTC half-open range [start, end) covering day.
func (c *Calendar) Bounds(day string) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(DayLayout, day, c.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	return d.UTC(), d.AddDate(0, 0, 1).UTC(), nil
}

// TodayBounds is Bounds(Today()).
func (c *Calendar) TodayBounds() (time.Time, time.Time) {
	now := c.Now().In(c.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// Next returns the next instant at hour:minute local time strictly after t.
func (c *Calendar) Next(t time.Time, hour, minute int) time.Time {
	local := t.In(c.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, c.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next.UTC()
}
