package booking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// DefaultSlotMinutes is used when a schedule has no explicit slot duration.
const DefaultSlotMinutes = 60

// ComputeAvailableSlots returns the bookable start times ("HH:MM", ascending)
// for the given calendar date. A slot is emitted when its half-open interval
// [start, start+duration) fits inside a weekly availability rule for that
// date's weekday and does not overlap any existing event starting on the same
// date. Touching endpoints do not count as overlap. The result is recomputed
// from scratch on every call; callers must not cache it, or schedule edits
// would be masked.
func ComputeAvailableSlots(date time.Time, config models.ScheduleConfig, events []models.BusyInterval) ([]string, error) {
	duration := config.SlotDurationMinutes
	if duration == 0 {
		duration = DefaultSlotMinutes
	}
	if duration < 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d", duration)
	}

	weekday := int(date.Weekday())

	var rules []models.WeeklyAvailabilityRule
	for _, rule := range config.Rules {
		if rule.DayOfWeek == weekday {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return []string{}, nil
	}

	busy := make([]models.BusyInterval, 0, len(events))
	for _, ev := range events {
		if sameCalendarDate(ev.Start, date) {
			busy = append(busy, ev)
		}
	}

	step := time.Duration(duration) * time.Minute
	seen := make(map[string]struct{})

	for _, rule := range rules {
		windowStart, err := onDate(date, rule.StartTime)
		if err != nil {
			return nil, fmt.Errorf("rule %d/%s: %w", rule.DayOfWeek, rule.StartTime, err)
		}
		windowEnd, err := onDate(date, rule.EndTime)
		if err != nil {
			return nil, fmt.Errorf("rule %d/%s: %w", rule.DayOfWeek, rule.EndTime, err)
		}

		// Fixed-step grid anchored at the rule start; a rejected slot never
		// shifts the grid.
		for cursor := windowStart; !cursor.Add(step).After(windowEnd); cursor = cursor.Add(step) {
			slotEnd := cursor.Add(step)
			if collides(cursor, slotEnd, busy) {
				continue
			}
			seen[cursor.Format("15:04")] = struct{}{}
		}
	}

	slots := make([]string, 0, len(seen))
	for s := range seen {
		slots = append(slots, s)
	}
	sort.Strings(slots)
	return slots, nil
}

// ParseClock validates an "HH:MM" string and returns minutes since midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	return hour*60 + minute, nil
}

func onDate(date time.Time, clock string) (time.Time, error) {
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, date.Location()), nil
}

func collides(slotStart, slotEnd time.Time, busy []models.BusyInterval) bool {
	for _, b := range busy {
		if slotStart.Before(b.End) && slotEnd.After(b.Start) {
			return true
		}
	}
	return false
}

func sameCalendarDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
