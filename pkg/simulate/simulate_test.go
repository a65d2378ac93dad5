package simulate

import (
	"testing"
	"time"

	"github.com/arnavshah/coverage-scheduler-go/pkg/scheduler"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Reproducible(t *testing.T) {
	opts := Options{Seed: 99, Caregivers: 4, Elders: 12}

	a, err := NewGenerator(opts).Week("agency-1", scheduler.DefaultWindows())
	require.NoError(t, err)
	b, err := NewGenerator(opts).Week("agency-1", scheduler.DefaultWindows())
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(a, b))

	c, err := NewGenerator(Options{Seed: 100, Caregivers: 4, Elders: 12}).Week("agency-1", scheduler.DefaultWindows())
	require.NoError(t, err)
	assert.NotEmpty(t, cmp.Diff(a, c))
}

func TestGenerator_Shape(t *testing.T) {
	in, err := NewGenerator(Options{
		Seed:       1,
		Caregivers: 3,
		Elders:     20,
		Groups:     2,
		ClosedDays: []time.Weekday{time.Sunday},
		WeekStart:  time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC),
	}).Week("agency-1", scheduler.DefaultWindows())
	require.NoError(t, err)

	require.Len(t, in.Days, 7)
	assert.Equal(t, "2026-10-19", in.Days[0])
	assert.Equal(t, "2026-10-25", in.Days[6])
	assert.True(t, in.Supply["2026-10-25"].Closed)
	assert.Empty(t, in.Demand["2026-10-25"])

	monday := in.Supply["2026-10-19"]
	require.Len(t, monday.Caregivers, 3)
	for _, c := range monday.Caregivers {
		assert.Equal(t, 3, c.DailyCapacity)
		assert.Len(t, c.TimeGrid, 3)
	}
	assert.LessOrEqual(t, len(in.Demand["2026-10-19"]), 20)

	groups := map[string]bool{}
	for _, e := range in.Demand["2026-10-19"] {
		groups[e.GroupID] = true
	}
	assert.LessOrEqual(t, len(groups), 2)
}

func TestGenerator_FullRateFeedsScheduler(t *testing.T) {
	rates := map[time.Weekday]float64{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		rates[d] = 1.0
	}
	in, err := NewGenerator(Options{Seed: 5, Caregivers: 10, Elders: 30, Rates: rates}).Week("a", scheduler.DefaultWindows())
	require.NoError(t, err)

	week, err := scheduler.NewScheduler(nil).BuildWeek(in.Days, in.Demand, in.Supply)
	require.NoError(t, err)
	assert.Equal(t, 0, week.UnfilledCount(), "10 caregivers x 3 slots cover exactly 30 elders")
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"sun", "Saturday", " Mon ", ""})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday, time.Monday}, days)

	_, err = ParseWeekdays([]string{"su"})
	assert.Error(t, err)
	_, err = ParseWeekdays([]string{"funday"})
	assert.Error(t, err)
}
