package scheduler

import (
	"errors"
	"testing"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBuildWeek(t *testing.T) {
	defer goleak.VerifyNone(t)

	demand, supply := uniformWeek(newCaregivers(2, 3), newElders(5))
	week, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)

	if len(week.Days) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(week.Days))
	}
	assert.Equal(t, testWeek[0], week.WeekStart)
	assert.Equal(t, PolicyLeastLoaded, week.Policy)

	for i, day := range week.Days {
		assert.Equal(t, testWeek[i], day.Date, "days keep input order")
		require.NoError(t, checkInvariants(day))
		if len(day.Assignments) != 5 {
			t.Errorf("Expected 5 records on %s, got %d", day.Date, len(day.Assignments))
		}
		assert.Equal(t, 1.0, day.Coverage)
	}
	assert.Equal(t, 0, week.UnfilledCount())
}

func TestBuildWeek_ClosedDay(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(1, 3), newElders(2))
	supply[testWeek[6]] = models.DaySupply{Closed: true}

	week, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)

	sunday := week.Days[6]
	assert.True(t, sunday.Closed)
	assert.Empty(t, sunday.Assignments, "closed days produce no records, not gaps")
	assert.Equal(t, 0, week.UnfilledCount())
}

func TestBuildWeek_MissingSupplyIsNotClosed(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(1, 3), newElders(2))
	delete(supply, testWeek[3])

	week, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)

	thursday := week.Days[3]
	require.Len(t, thursday.Assignments, 2)
	for _, a := range thursday.Assignments {
		assert.Equal(t, models.StatusUnfilled, a.Status)
	}
}

func TestBuildWeek_CapacityDoesNotCarryOver(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(1, 3), newElders(3))
	week, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)

	for _, day := range week.Days {
		for _, a := range day.Assignments {
			assert.True(t, a.Filled())
		}
	}
}

func TestBuildWeek_InvalidGridFailsWeek(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(2, 3), newElders(3))
	broken := newCaregivers(2, 3)
	broken[1].TimeGrid = []models.Window{{Start: "09:00", End: "12:00"}, {Start: "11:00", End: "13:00"}}
	supply[testWeek[2]] = models.DaySupply{Caregivers: broken}

	week, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	require.Error(t, err)
	assert.Nil(t, week)

	var ge *InvalidGridError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, testWeek[2], ge.Day)
	assert.Equal(t, "c02", ge.CaregiverID)
	assert.Equal(t, 1, ge.Index)
}

func TestBuildWeek_ClosedDaySkipsGridValidation(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(1, 3), newElders(1))
	broken := newCaregivers(1, 3)
	broken[0].TimeGrid = nil
	supply[testWeek[5]] = models.DaySupply{Closed: true, Caregivers: broken}

	_, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	assert.NoError(t, err)
}

func TestValidateWeek(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(1, 3), newElders(2))

	err := ValidateWeek(testWeek[:6], demand, supply)
	assert.ErrorIs(t, err, ErrInvalidWeek)

	shuffled := append([]string{}, testWeek...)
	shuffled[0], shuffled[1] = shuffled[1], shuffled[0]
	assert.ErrorIs(t, ValidateWeek(shuffled, demand, supply), ErrInvalidWeek)

	badDate := append([]string{}, testWeek...)
	badDate[3] = "Thursday"
	assert.ErrorIs(t, ValidateWeek(badDate, demand, supply), ErrInvalidWeek)

	dup := append(newElders(2), newElders(1)...)
	demand[testWeek[1]] = dup
	var de *DuplicateElderError
	require.ErrorAs(t, ValidateWeek(testWeek, demand, supply), &de)
	assert.Equal(t, "e01", de.ElderID)

	demand, supply = uniformWeek(append(newCaregivers(1, 3), newCaregivers(1, 3)...), newElders(2))
	var dc *DuplicateCaregiverError
	require.ErrorAs(t, ValidateWeek(testWeek, demand, supply), &dc)

	demand, supply = uniformWeek(newCaregivers(1, -1), newElders(2))
	assert.ErrorIs(t, ValidateWeek(testWeek, demand, supply), ErrInvalidCapacity)
}

func TestBuildWeek_CoverageTarget(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(1, 3), newElders(4))
	supply[testWeek[0]] = models.DaySupply{Caregivers: newCaregivers(1, 3), CoverageTarget: 0.9}
	supply[testWeek[1]] = models.DaySupply{Caregivers: newCaregivers(1, 3), CoverageTarget: 0.5}

	week, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)

	assert.Equal(t, 0.75, week.Days[0].Coverage)
	assert.False(t, week.Days[0].TargetMet)
	assert.True(t, week.Days[1].TargetMet)
}

func TestBuildWeek_Reproducible(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(4, 2), newElders(10))
	s := NewScheduler(NewSolver(SeededShuffle{Seed: 11}, nil))

	first, err := s.BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)
	assert.Equal(t, int64(11), first.Seed)
	assert.Equal(t, PolicyShuffle, first.Policy)

	for i := 0; i < 3; i++ {
		again, err := s.BuildWeek(testWeek, demand, supply)
		require.NoError(t, err)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("week not reproducible (-first +again):\n%s", diff)
		}
	}
}

func TestBuildWeek_SerialMatchesParallel(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(3, 2), newElders(8))

	parallel := NewScheduler(nil)
	serial := NewScheduler(nil)
	serial.Parallelism = 1

	a, err := parallel.BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)
	b, err := serial.BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))
}

func TestFairnessScore(t *testing.T) {
	assert.Equal(t, 100.0, FairnessScore(nil))
	assert.Equal(t, 100.0, FairnessScore([]float64{0, 0}))
	assert.Equal(t, 100.0, FairnessScore([]float64{3, 3, 3}))
	assert.Equal(t, 0.0, FairnessScore([]float64{0, 0, 0, 9}))
	assert.InDelta(t, 66.67, FairnessScore([]float64{2, 4}), 0.01)
}

func TestWeekFairness_LeastLoadedIsEven(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(3, 3), newElders(6))
	week, err := NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	require.NoError(t, err)
	assert.Equal(t, 100.0, week.FairnessScore)
}

func TestBuild_RecordsPolicyForReplay(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(3, 2), newElders(5))
	in := models.WeekInput{
		AgencyID:    "agency-1",
		Days:        testWeek,
		Demand:      demand,
		Supply:      supply,
		Policy:      PolicyShuffle,
		Seed:        42,
		ConfirmRate: 0.5,
	}

	s, err := FromPolicy(in.Policy, in.Seed, in.ConfirmRate, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Parallelism)

	week, err := s.Build(in)
	require.NoError(t, err)
	assert.Equal(t, "agency-1", week.AgencyID)
	assert.Equal(t, PolicyShuffle, week.Policy)
	assert.Equal(t, int64(42), week.Seed)
	assert.Equal(t, 0.5, week.ConfirmRate)

	replay, err := ForWeek(week, 0)
	require.NoError(t, err)
	again, err := replay.Build(in)
	require.NoError(t, err)
	if diff := cmp.Diff(week, again); diff != "" {
		t.Errorf("replayed build differs (-first +replay):\n%s", diff)
	}
}

func TestFromPolicy_UnknownPolicy(t *testing.T) {
	_, err := FromPolicy("fastest", 0, 0, 0)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestValidateInput(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(2, 3), newElders(4))
	in := models.WeekInput{Days: testWeek, Demand: demand, Supply: supply}

	res := ValidateInput(in)
	assert.True(t, res.Valid, res.Error)
	assert.Equal(t, models.ValidationResult{Valid: true, DayCount: 7, CaregiverCount: 2, ElderCount: 4}, res)

	in.Policy = "fastest"
	res = ValidateInput(in)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Error, "fastest")

	in.Policy = ""
	in.Days = testWeek[:3]
	res = ValidateInput(in)
	assert.False(t, res.Valid)
	assert.Equal(t, 3, res.DayCount)
}

func TestValidateWeek_EntriesOutsideWeek(t *testing.T) {
	demand, supply := uniformWeek(newCaregivers(1, 3), newElders(1))
	demand["2026-10-26"] = newElders(4)

	err := ValidateWeek(testWeek, demand, supply)
	require.ErrorIs(t, err, ErrInvalidWeek)
	assert.Contains(t, err.Error(), "2026-10-26")

	_, err = NewScheduler(nil).BuildWeek(testWeek, demand, supply)
	assert.ErrorIs(t, err, ErrInvalidWeek, "off-week elders are rejected, not dropped")

	delete(demand, "2026-10-26")
	supply["2026-10-18"] = models.DaySupply{Caregivers: newCaregivers(1, 3)}
	assert.ErrorIs(t, ValidateWeek(testWeek, demand, supply), ErrInvalidWeek)
}
