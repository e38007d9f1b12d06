package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrHaila/kantama/pkg/core"
)

func TestServiceDay_AlwaysReferenceWeekday(t *testing.T) {
	// One start per weekday; every result must land on the reference day.
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC) // a Monday
	for i := 0; i < 7; i++ {
		from := start.AddDate(0, 0, i)
		day := ServiceDay(from)
		assert.Equal(t, ReferenceWeekday, day.Weekday(), "from %s", from.Weekday())
		assert.True(t, day.After(from), "service day must be in the future")
	}
}

func TestServiceDay_StrictlyFutureOnReferenceWeekday(t *testing.T) {
	wednesday := time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Wednesday, wednesday.Weekday())

	day := ServiceDay(wednesday)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), day,
		"a run on the reference weekday targets the following week")
}

func TestServiceDay_Deterministic(t *testing.T) {
	from := time.Date(2026, 3, 6, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, ServiceDay(from), ServiceDay(from.Add(3*time.Hour)),
		"same calendar day yields the same service day")
}

func TestQueryClock_PeriodMapping(t *testing.T) {
	h, m := QueryClock(core.PeriodMorning)
	assert.Equal(t, []int{8, 30}, []int{h, m})

	h, m = QueryClock(core.PeriodEvening)
	assert.Equal(t, []int{17, 30}, []int{h, m})

	h, m = QueryClock(core.PeriodMidnight)
	assert.Equal(t, []int{23, 30}, []int{h, m})
}

func TestQueryFormats(t *testing.T) {
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-11", QueryDate(day))
	assert.Equal(t, "08:30", QueryTime(core.PeriodMorning))
	assert.Equal(t, "23:30", QueryTime(core.PeriodMidnight))
}

func TestEvery_CalculatesNextRun(t *testing.T) {
	s := Every(time.Hour)
	now := time.Date(2026, 2, 8, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 8, 11, 30, 0, 0, time.UTC), s.Next(now))
}

func TestDaily_CalculatesNextRun(t *testing.T) {
	s := Daily(3, 0)

	// Before 3am.
	now := time.Date(2026, 2, 8, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 8, 3, 0, 0, 0, time.UTC), s.Next(now))

	// After 3am rolls to the next day.
	now = time.Date(2026, 2, 8, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 9, 3, 0, 0, 0, time.UTC), s.Next(now))
}

func TestWeekly_CalculatesNextRun(t *testing.T) {
	s := Weekly(time.Tuesday, 3, 0)

	// Sunday -> upcoming Tuesday.
	now := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 10, 3, 0, 0, 0, time.UTC), s.Next(now))

	// Tuesday after the slot -> next week's Tuesday.
	now = time.Date(2026, 2, 10, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 17, 3, 0, 0, 0, time.UTC), s.Next(now))
}

func TestCron_CalculatesNextRun(t *testing.T) {
	s := Cron("0 3 * * 2") // 03:00 every Tuesday

	now := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)
	next := s.Next(now)

	assert.Equal(t, time.Weekday(2), next.Weekday())
	assert.Equal(t, 3, next.Hour())
}

func TestCron_InvalidExpressionPanics(t *testing.T) {
	assert.Panics(t, func() { Cron("not a cron expr") })
}
