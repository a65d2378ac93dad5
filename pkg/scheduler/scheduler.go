package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

const dateLayout = "2006-01-02"

// DaysPerWeek is the number of days a weekly schedule covers
const DaysPerWeek = 7

// Scheduler drives the solver across a week. Days are independent: each gets
// a fresh tracker, so they are solved concurrently.
type Scheduler struct {
	Solver      *Solver
	Parallelism int
}

// NewScheduler creates a new scheduler instance
func NewScheduler(solver *Solver) *Scheduler {
	if solver == nil {
		solver = NewSolver(nil, nil)
	}
	return &Scheduler{Solver: solver, Parallelism: DaysPerWeek}
}

// FromPolicy creates a scheduler for a named candidate order. A positive
// confirmRate marks that share of filled records confirmed.
func FromPolicy(policy string, seed int64, confirmRate float64, parallelism int) (*Scheduler, error) {
	order, err := OrderByName(policy, seed)
	if err != nil {
		return nil, err
	}
	var status StatusPolicy
	if confirmRate > 0 {
		status = ConfirmationRate(confirmRate, seed)
	}
	s := NewScheduler(NewSolver(order, status))
	if parallelism > 0 {
		s.Parallelism = parallelism
	}
	return s, nil
}

// ForWeek creates a scheduler that replays the policy a week was built with
func ForWeek(week *models.WeeklySchedule, parallelism int) (*Scheduler, error) {
	return FromPolicy(week.Policy, week.Seed, week.ConfirmRate, parallelism)
}

// Build solves a normalized WeekInput and stamps the agency on the result
func (s *Scheduler) Build(in models.WeekInput) (*models.WeeklySchedule, error) {
	week, err := s.BuildWeek(in.Days, in.Demand, in.Supply)
	if err != nil {
		return nil, err
	}
	week.AgencyID = in.AgencyID
	week.Seed = in.Seed
	week.ConfirmRate = in.ConfirmRate
	return week, nil
}

// BuildWeek validates the week and solves every day. Any invalid grid fails
// the whole build. Closed days get no records. Results keep the order of days.
func (s *Scheduler) BuildWeek(days []string, demandByDay map[string][]models.Elder, supplyByDay map[string]models.DaySupply) (*models.WeeklySchedule, error) {
	if err := ValidateWeek(days, demandByDay, supplyByDay); err != nil {
		return nil, err
	}

	week := &models.WeeklySchedule{
		WeekStart: days[0],
		Policy:    s.Solver.Order.Name(),
		Seed:      policySeed(s.Solver.Order),
		Days:      make([]models.DaySchedule, len(days)),
	}

	var g errgroup.Group
	if s.Parallelism > 0 {
		g.SetLimit(s.Parallelism)
	}
	for i, date := range days {
		i, date := i, date
		g.Go(func() error {
			ds, err := s.solveDay(date, demandByDay[date], supplyByDay[date])
			if err != nil {
				return err
			}
			week.Days[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	week.FairnessScore = WeekFairness(week)
	return week, nil
}

func (s *Scheduler) solveDay(date string, elders []models.Elder, supply models.DaySupply) (models.DaySchedule, error) {
	ds := models.DaySchedule{
		Date:           date,
		Closed:         supply.Closed,
		CoverageTarget: supply.CoverageTarget,
		Caregivers:     append([]models.Caregiver{}, supply.Caregivers...),
		Elders:         append([]models.Elder{}, elders...),
		Assignments:    []models.Assignment{},
	}
	if supply.Closed {
		FinishDay(&ds)
		return ds, nil
	}

	tracker, err := NewDayTracker(date, supply.Caregivers)
	if err != nil {
		return ds, err
	}
	ds.Assignments = s.Solver.Solve(date, ds.Elders, ds.Caregivers, tracker)
	FinishDay(&ds)
	return ds, nil
}

// NewDayTracker registers a day's roster on a fresh tracker
func NewDayTracker(date string, caregivers []models.Caregiver) (*CapacityTracker, error) {
	t := NewCapacityTracker()
	seen := make(map[string]bool, len(caregivers))
	for _, c := range caregivers {
		if seen[c.ID] {
			return nil, &DuplicateCaregiverError{CaregiverID: c.ID, Day: date}
		}
		seen[c.ID] = true

		if err := t.Register(c); err != nil {
			var ge *InvalidGridError
			if errors.As(err, &ge) {
				ge.Day = date
				return nil, ge
			}
			return nil, fmt.Errorf("%s: caregiver %s: %w", date, c.ID, err)
		}
	}
	return t, nil
}

// ValidateWeek checks dates, duplicate ids, capacities and every grid
// without solving anything.
func ValidateWeek(days []string, demandByDay map[string][]models.Elder, supplyByDay map[string]models.DaySupply) error {
	if len(days) != DaysPerWeek {
		return fmt.Errorf("%w: expected %d days, got %d", ErrInvalidWeek, DaysPerWeek, len(days))
	}

	var prev time.Time
	for i, date := range days {
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return fmt.Errorf("%w: bad date %q", ErrInvalidWeek, date)
		}
		if i > 0 && !t.After(prev) {
			return fmt.Errorf("%w: %s does not follow %s", ErrInvalidWeek, date, days[i-1])
		}
		prev = t

		seen := make(map[string]bool)
		for _, e := range demandByDay[date] {
			if seen[e.ID] {
				return &DuplicateElderError{ElderID: e.ID, Day: date}
			}
			seen[e.ID] = true
		}

		supply := supplyByDay[date]
		if supply.Closed {
			continue
		}
		if _, err := NewDayTracker(date, supply.Caregivers); err != nil {
			return err
		}
	}

	// Demand or supply keyed outside the week would never get a record.
	inWeek := make(map[string]bool, len(days))
	for _, d := range days {
		inWeek[d] = true
	}
	if date := firstOutside(inWeek, demandByDay); date != "" {
		return fmt.Errorf("%w: demand listed for %s, which is not in the week", ErrInvalidWeek, date)
	}
	if date := firstOutside(inWeek, supplyByDay); date != "" {
		return fmt.Errorf("%w: supply listed for %s, which is not in the week", ErrInvalidWeek, date)
	}
	return nil
}

// firstOutside returns the earliest key of byDay missing from inWeek
func firstOutside[V any](inWeek map[string]bool, byDay map[string]V) string {
	var outside []string
	for d := range byDay {
		if !inWeek[d] {
			outside = append(outside, d)
		}
	}
	if len(outside) == 0 {
		return ""
	}
	sort.Strings(outside)
	return outside[0]
}

// ValidateInput validates a normalized WeekInput, including its policy name,
// and counts the distinct ids it names.
func ValidateInput(in models.WeekInput) models.ValidationResult {
	caregivers := make(map[string]bool)
	elders := make(map[string]bool)
	for _, day := range in.Days {
		for _, cg := range in.Supply[day].Caregivers {
			caregivers[cg.ID] = true
		}
		for _, e := range in.Demand[day] {
			elders[e.ID] = true
		}
	}

	result := models.ValidationResult{
		Valid:          true,
		DayCount:       len(in.Days),
		CaregiverCount: len(caregivers),
		ElderCount:     len(elders),
	}
	err := ValidateWeek(in.Days, in.Demand, in.Supply)
	if err == nil {
		_, err = OrderByName(in.Policy, in.Seed)
	}
	if err != nil {
		result.Valid = false
		result.Error = err.Error()
	}
	return result
}

// FinishDay recomputes coverage and whether the day met its target
func FinishDay(ds *models.DaySchedule) {
	total := len(ds.Assignments)
	if total == 0 {
		ds.Coverage = 1.0
	} else {
		filled := 0
		for _, a := range ds.Assignments {
			if a.Filled() {
				filled++
			}
		}
		ds.Coverage = float64(filled) / float64(total)
	}
	ds.TargetMet = ds.Coverage >= ds.CoverageTarget
}

// WeekFairness scores how evenly the week's records are spread across every
// caregiver rostered on any open day.
func WeekFairness(week *models.WeeklySchedule) float64 {
	counts := make(map[string]float64)
	for _, d := range week.Days {
		if d.Closed {
			continue
		}
		for _, c := range d.Caregivers {
			if _, ok := counts[c.ID]; !ok {
				counts[c.ID] = 0
			}
		}
		for _, a := range d.Assignments {
			if a.Filled() {
				counts[a.CaregiverID]++
			}
		}
	}
	loads := make([]float64, 0, len(counts))
	for _, v := range counts {
		loads = append(loads, v)
	}
	sort.Float64s(loads)
	return FairnessScore(loads)
}

// FairnessScore returns a percentage (0-100) representing how evenly
// load is distributed. 100% is perfectly fair (Standard Deviation = 0).
func FairnessScore(loads []float64) float64 {
	if len(loads) == 0 {
		return 100.0
	}

	var sum float64
	for _, v := range loads {
		sum += v
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(loads))

	var varianceSum float64
	for _, v := range loads {
		diff := v - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(loads)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

func policySeed(order CandidateOrder) int64 {
	if s, ok := order.(SeededShuffle); ok {
		return s.Seed
	}
	return 0
}
