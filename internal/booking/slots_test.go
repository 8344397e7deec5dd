package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
)

// monday is 2025-01-06, a Monday (weekday 1).
var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func rule(day int, start, end string) models.WeeklyAvailabilityRule {
	return models.WeeklyAvailabilityRule{DayOfWeek: day, StartTime: start, EndTime: end}
}

func at(d time.Time, hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
}

func TestComputeAvailableSlotsNoRuleForWeekday(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(2, "09:00", "11:00")}, SlotDurationMinutes: 60}

	slots, err := ComputeAvailableSlots(monday, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeAvailableSlotsBasicWindow(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "11:00")}, SlotDurationMinutes: 60}

	slots, err := ComputeAvailableSlots(monday, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, slots)
}

func TestComputeAvailableSlotsEventSuppressesOverlappingSlots(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "11:00")}, SlotDurationMinutes: 60}
	events := []models.BusyInterval{{Start: at(monday, 9, 30), End: at(monday, 10, 30)}}

	// The 09:30-10:30 event overlaps both the 09:00 and the 10:00 slot.
	slots, err := ComputeAvailableSlots(monday, cfg, events)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeAvailableSlotsHalfHourGrid(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "10:00")}, SlotDurationMinutes: 30}

	slots, err := ComputeAvailableSlots(monday, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, slots)
}

func TestComputeAvailableSlotsOverlappingRulesDeduplicated(t *testing.T) {
	cfg := models.ScheduleConfig{
		Rules: []models.WeeklyAvailabilityRule{
			rule(1, "09:00", "10:00"),
			rule(1, "09:30", "10:30"),
			rule(1, "09:00", "10:00"), // identical rule yields the slot once
		},
		SlotDurationMinutes: 60,
	}

	slots, err := ComputeAvailableSlots(monday, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, slots)
}

func TestComputeAvailableSlotsTouchingEndpointsDoNotCollide(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "11:00")}, SlotDurationMinutes: 60}
	events := []models.BusyInterval{
		{Start: at(monday, 8, 0), End: at(monday, 9, 0)},   // ends exactly at first slot start
		{Start: at(monday, 11, 0), End: at(monday, 12, 0)}, // starts exactly at last slot end
	}

	slots, err := ComputeAvailableSlots(monday, cfg, events)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, slots)
}

func TestComputeAvailableSlotsWindowShorterThanDuration(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "09:45")}, SlotDurationMinutes: 60}

	slots, err := ComputeAvailableSlots(monday, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeAvailableSlotsIgnoresEventsOnOtherDates(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "11:00")}, SlotDurationMinutes: 60}
	tuesday := monday.AddDate(0, 0, 1)
	events := []models.BusyInterval{
		{Start: at(tuesday, 9, 0), End: at(tuesday, 11, 0)},
		// Spans midnight into Monday, but its start date is Sunday so it is
		// only considered on the Sunday side.
		{Start: at(monday.AddDate(0, 0, -1), 23, 0), End: at(monday, 10, 0)},
	}

	slots, err := ComputeAvailableSlots(monday, cfg, events)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, slots)
}

func TestComputeAvailableSlotsGridNeverRealigns(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "13:00")}, SlotDurationMinutes: 60}
	events := []models.BusyInterval{{Start: at(monday, 9, 30), End: at(monday, 11, 30)}}

	// The event swallows 09:00, 10:00 and 11:00; the grid stays anchored at
	// 09:00 so 12:00 is the only survivor.
	slots, err := ComputeAvailableSlots(monday, cfg, events)
	require.NoError(t, err)
	assert.Equal(t, []string{"12:00"}, slots)
}

func TestComputeAvailableSlotsDefaultDuration(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "12:00")}}

	slots, err := ComputeAvailableSlots(monday, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "11:00"}, slots)
}

func TestComputeAvailableSlotsIsPure(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "11:00")}, SlotDurationMinutes: 60}
	events := []models.BusyInterval{{Start: at(monday, 10, 0), End: at(monday, 10, 30)}}

	first, err := ComputeAvailableSlots(monday, cfg, events)
	require.NoError(t, err)
	second, err := ComputeAvailableSlots(monday, cfg, events)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeAvailableSlotsMalformedTime(t *testing.T) {
	for _, bad := range []string{"9am", "25:00", "09:60", "0900", ""} {
		cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, bad, "11:00")}, SlotDurationMinutes: 60}
		_, err := ComputeAvailableSlots(monday, cfg, nil)
		require.Error(t, err, "time %q should be rejected", bad)
	}
}

func TestComputeAvailableSlotsNegativeDuration(t *testing.T) {
	cfg := models.ScheduleConfig{Rules: []models.WeeklyAvailabilityRule{rule(1, "09:00", "11:00")}, SlotDurationMinutes: -15}

	_, err := ComputeAvailableSlots(monday, cfg, nil)
	require.Error(t, err)
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("14:45")
	require.NoError(t, err)
	assert.Equal(t, 14*60+45, minutes)

	_, err = ParseClock("14:4x")
	require.Error(t, err)
}
