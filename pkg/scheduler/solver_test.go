package scheduler

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solveDay(t *testing.T, s *Solver, caregivers []models.Caregiver, elders []models.Elder) []models.Assignment {
	t.Helper()
	tr, err := NewDayTracker(monday, caregivers)
	require.NoError(t, err)
	return s.Solve(monday, elders, caregivers, tr)
}

func TestSolve_Saturation(t *testing.T) {
	s := NewSolver(SuppliedOrder{}, nil)
	got := solveDay(t, s, newCaregivers(1, 3), newElders(5))

	if len(got) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(got))
	}
	for i := 0; i < 3; i++ {
		if got[i].Status != models.StatusScheduled {
			t.Errorf("Expected elder %s to be scheduled, got %s", got[i].ElderID, got[i].Status)
		}
		if got[i].SlotIndex != i {
			t.Errorf("Expected elder %s in slot %d, got %d", got[i].ElderID, i, got[i].SlotIndex)
		}
	}
	for _, a := range got[3:] {
		if a.Status != models.StatusUnfilled {
			t.Errorf("Expected elder %s to be unfilled, got %s", a.ElderID, a.Status)
		}
		if a.CaregiverID != "" || a.SlotIndex != -1 {
			t.Errorf("Expected unfilled record without caregiver, got %+v", a)
		}
	}
	assert.Equal(t, "e04", got[3].ElderID)
	assert.Equal(t, "e05", got[4].ElderID)
	assert.Equal(t, "1 caregiver was at capacity", got[4].Reason)
}

func TestSolve_ExactFit(t *testing.T) {
	for _, order := range []CandidateOrder{SuppliedOrder{}, RoundRobin{}, LeastLoaded{}, SeededShuffle{Seed: 7}} {
		t.Run(order.Name(), func(t *testing.T) {
			got := solveDay(t, NewSolver(order, nil), newCaregivers(10, 3), newElders(30))
			require.Len(t, got, 30)
			for _, a := range got {
				assert.True(t, a.Filled(), "elder %s left unfilled", a.ElderID)
			}
		})
	}
}

func TestSolve_NoCaregivers(t *testing.T) {
	got := solveDay(t, NewSolver(nil, nil), nil, newElders(4))
	require.Len(t, got, 4)
	for _, a := range got {
		assert.Equal(t, models.StatusUnfilled, a.Status)
		assert.Equal(t, "no caregivers rostered", a.Reason)
	}
}

func TestSolve_CapacityBelowSlotCount(t *testing.T) {
	got := solveDay(t, NewSolver(nil, nil), newCaregivers(2, 2), newElders(6))

	filled := 0
	for _, a := range got {
		if a.Filled() {
			filled++
		}
	}
	assert.Equal(t, 4, filled)
	assert.Equal(t, "2 caregivers were at capacity", got[5].Reason)
}

func TestSolve_SlotTimesAndStatus(t *testing.T) {
	s := NewSolver(SuppliedOrder{}, FixedStatus(models.StatusConfirmed))
	got := solveDay(t, s, newCaregivers(1, 3), newElders(2))

	assert.Equal(t, models.Assignment{
		ElderID: "e02", CaregiverID: "c01", Day: monday, SlotIndex: 1,
		SlotStart: "11:00", SlotEnd: "13:30", Status: models.StatusConfirmed,
	}, got[1])
}

func TestSolve_RepeatedElderSolvedOnce(t *testing.T) {
	elders := newElders(2)
	elders = append(elders, elders[0])
	got := solveDay(t, NewSolver(nil, nil), newCaregivers(2, 3), elders)
	assert.Len(t, got, 2)
}

func TestSolve_LeastLoadedSpreadsWork(t *testing.T) {
	got := solveDay(t, NewSolver(LeastLoaded{}, nil), newCaregivers(3, 3), newElders(3))

	seen := map[string]bool{}
	for _, a := range got {
		seen[a.CaregiverID] = true
		assert.Equal(t, 0, a.SlotIndex)
	}
	assert.Len(t, seen, 3)
}

func TestSolve_RoundRobinRotatesStart(t *testing.T) {
	got := solveDay(t, NewSolver(RoundRobin{}, nil), newCaregivers(3, 3), newElders(4))

	want := []string{"c01", "c02", "c03", "c01"}
	for i, a := range got {
		assert.Equal(t, want[i], a.CaregiverID)
	}
}

func TestSolve_Deterministic(t *testing.T) {
	caregivers := newCaregivers(6, 2)
	elders := newElders(15)
	s := NewSolver(SeededShuffle{Seed: 42}, ConfirmationRate(0.5, 42))

	first := solveDay(t, s, caregivers, elders)
	for i := 0; i < 5; i++ {
		again := solveDay(t, s, caregivers, elders)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("solve not reproducible (-first +again):\n%s", diff)
		}
	}
}

func TestSolve_InvariantsHoldForRandomRosters(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	policies := []CandidateOrder{SuppliedOrder{}, RoundRobin{}, LeastLoaded{}, SeededShuffle{Seed: 3}}

	for round := 0; round < 200; round++ {
		caregivers := newCaregivers(r.Intn(6), 0)
		for i := range caregivers {
			caregivers[i].DailyCapacity = r.Intn(5)
			if r.Intn(2) == 0 {
				caregivers[i].TimeGrid = caregivers[i].TimeGrid[:1+r.Intn(3)]
			}
		}
		elders := newElders(r.Intn(25))
		order := policies[round%len(policies)]

		day := models.DaySchedule{
			Date:        monday,
			Caregivers:  caregivers,
			Elders:      elders,
			Assignments: solveDay(t, NewSolver(order, nil), caregivers, elders),
		}
		if err := checkInvariants(day); err != nil {
			t.Fatalf("round %d (%s): %v", round, order.Name(), err)
		}
	}
}

func TestOrderByName(t *testing.T) {
	for _, name := range []string{PolicySupplied, PolicyRoundRobin, PolicyLeastLoaded, PolicyShuffle} {
		order, err := OrderByName(name, 9)
		require.NoError(t, err)
		assert.Equal(t, name, order.Name())
	}

	order, err := OrderByName("", 0)
	require.NoError(t, err)
	assert.Equal(t, PolicyLeastLoaded, order.Name())

	_, err = OrderByName("random", 0)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestConfirmationRate(t *testing.T) {
	always := ConfirmationRate(1.0, 1)
	never := ConfirmationRate(0.0, 1)
	for i := 0; i < 20; i++ {
		e := models.Elder{ID: fmt.Sprintf("e%d", i)}
		assert.Equal(t, models.StatusConfirmed, always(e, models.Caregiver{}, monday))
		assert.Equal(t, models.StatusScheduled, never(e, models.Caregiver{}, monday))
	}
}
