package scheduler

import (
	"fmt"
	"sort"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

// Reconciler applies change events to a stored week, re-solving only the
// affected days and only the elders the change freed.
type Reconciler struct {
	Solver *Solver
}

// NewReconciler creates a reconciler that re-solves with solver
func NewReconciler(solver *Solver) *Reconciler {
	if solver == nil {
		solver = NewSolver(nil, nil)
	}
	return &Reconciler{Solver: solver}
}

// dayPlan is the new input for one affected day
type dayPlan struct {
	index         int
	roster        []models.Caregiver
	elders        []models.Elder
	release       map[string]bool
	retryUnfilled bool
}

// Reconcile returns the diff between week and the schedule that supersedes
// it after ev. The input week is not modified.
func (r *Reconciler) Reconcile(week *models.WeeklySchedule, ev models.ChangeEvent) (*models.ScheduleDiff, error) {
	plans, err := r.plan(week, ev)
	if err != nil {
		return nil, err
	}

	next := cloneWeek(week)
	diff := &models.ScheduleDiff{
		Event:         ev,
		Days:          []string{},
		Added:         []models.Assignment{},
		Removed:       []models.Assignment{},
		Unchanged:     []models.Assignment{},
		NewlyUnfilled: []models.Assignment{},
	}
	for _, p := range plans {
		old := week.Days[p.index]
		ds, err := r.applyDay(old, p)
		if err != nil {
			return nil, err
		}
		next.Days[p.index] = ds
		diff.Days = append(diff.Days, ds.Date)
		diffDay(diff, old.Assignments, ds.Assignments)
	}
	next.FairnessScore = WeekFairness(next)
	diff.Schedule = next
	return diff, nil
}

func (r *Reconciler) plan(week *models.WeeklySchedule, ev models.ChangeEvent) ([]dayPlan, error) {
	switch ev.Type {
	case models.EventCaregiverUnavailable:
		day, idx, err := lookupOpenDay(week, ev.Date)
		if err != nil {
			return nil, err
		}
		if !rostered(day.Caregivers, ev.CaregiverID) {
			return nil, &UnknownCaregiverError{CaregiverID: ev.CaregiverID, Day: day.Date}
		}
		roster := make([]models.Caregiver, 0, len(day.Caregivers))
		for _, c := range day.Caregivers {
			if c.ID != ev.CaregiverID {
				roster = append(roster, c)
			}
		}
		release := make(map[string]bool)
		for _, a := range day.Assignments {
			if a.Filled() && a.CaregiverID == ev.CaregiverID {
				release[a.ElderID] = true
			}
		}
		return []dayPlan{{index: idx, roster: roster, elders: day.Elders, release: release, retryUnfilled: true}}, nil

	case models.EventElderAdded:
		if ev.Elder == nil || ev.Elder.ID == "" {
			return nil, fmt.Errorf("%w: %s needs an elder", ErrUnsupportedEvent, ev.Type)
		}
		day, idx, err := lookupOpenDay(week, ev.Date)
		if err != nil {
			return nil, err
		}
		for _, e := range day.Elders {
			if e.ID == ev.Elder.ID {
				return nil, &DuplicateElderError{ElderID: e.ID, Day: day.Date}
			}
		}
		elders := append(append([]models.Elder{}, day.Elders...), *ev.Elder)
		return []dayPlan{{index: idx, roster: day.Caregivers, elders: elders}}, nil

	case models.EventElderRemoved:
		day, idx, err := lookupOpenDay(week, ev.Date)
		if err != nil {
			return nil, err
		}
		elders := make([]models.Elder, 0, len(day.Elders))
		for _, e := range day.Elders {
			if e.ID != ev.ElderID {
				elders = append(elders, e)
			}
		}
		if len(elders) == len(day.Elders) {
			return nil, &UnknownElderError{ElderID: ev.ElderID, Day: day.Date}
		}
		return []dayPlan{{index: idx, roster: day.Caregivers, elders: elders}}, nil

	case models.EventCapacityChanged:
		if ev.Capacity == nil || *ev.Capacity < 0 {
			return nil, ErrInvalidCapacity
		}
		return r.planCapacity(week, ev)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev.Type)
}

func (r *Reconciler) planCapacity(week *models.WeeklySchedule, ev models.ChangeEvent) ([]dayPlan, error) {
	var indexes []int
	if ev.Date != "" {
		day, idx, err := lookupOpenDay(week, ev.Date)
		if err != nil {
			return nil, err
		}
		if !rostered(day.Caregivers, ev.CaregiverID) {
			return nil, &UnknownCaregiverError{CaregiverID: ev.CaregiverID, Day: day.Date}
		}
		indexes = []int{idx}
	} else {
		for i, d := range week.Days {
			if !d.Closed && rostered(d.Caregivers, ev.CaregiverID) {
				indexes = append(indexes, i)
			}
		}
		if len(indexes) == 0 {
			return nil, &UnknownCaregiverError{CaregiverID: ev.CaregiverID}
		}
	}

	capacity := *ev.Capacity
	plans := make([]dayPlan, 0, len(indexes))
	for _, idx := range indexes {
		day := week.Days[idx]
		roster := append([]models.Caregiver{}, day.Caregivers...)
		for i := range roster {
			if roster[i].ID == ev.CaregiverID {
				roster[i].DailyCapacity = capacity
			}
		}

		// Shed the latest slots first when the new capacity is below the load.
		var held []models.Assignment
		for _, a := range day.Assignments {
			if a.Filled() && a.CaregiverID == ev.CaregiverID {
				held = append(held, a)
			}
		}
		sort.SliceStable(held, func(i, j int) bool { return held[i].SlotIndex > held[j].SlotIndex })
		release := make(map[string]bool)
		for i := 0; i < len(held)-capacity; i++ {
			release[held[i].ElderID] = true
		}

		plans = append(plans, dayPlan{index: idx, roster: roster, elders: day.Elders, release: release, retryUnfilled: true})
	}
	return plans, nil
}

// applyDay loads the old occupancy into a fresh tracker, releases the
// records the change invalidated, then solves the freed, new and (when
// asked) previously unfilled elders.
func (r *Reconciler) applyDay(old models.DaySchedule, p dayPlan) (models.DaySchedule, error) {
	tracker, err := NewDayTracker(old.Date, p.roster)
	if err != nil {
		return old, err
	}

	capacity := make(map[string]int, len(p.roster))
	for _, c := range p.roster {
		capacity[c.ID] = c.DailyCapacity
	}
	// Old records may exceed a lowered capacity until they are released.
	held := make(map[string]int)
	for _, a := range old.Assignments {
		if _, ok := capacity[a.CaregiverID]; ok && a.Filled() {
			held[a.CaregiverID]++
		}
	}
	for id, n := range held {
		if n > capacity[id] {
			tracker.SetCapacity(id, n)
		}
	}

	demand := make(map[string]bool, len(p.elders))
	for _, e := range p.elders {
		demand[e.ID] = true
	}
	prev := make(map[string]models.Assignment, len(old.Assignments))
	next := make(map[string]models.Assignment, len(p.elders))
	for _, a := range old.Assignments {
		prev[a.ElderID] = a
		if !a.Filled() || !tracker.TryOccupy(a.CaregiverID, old.Date, a.SlotIndex) {
			continue
		}
		if !demand[a.ElderID] || p.release[a.ElderID] {
			tracker.Release(a.CaregiverID, old.Date, a.SlotIndex)
			continue
		}
		next[a.ElderID] = a
	}
	for id := range held {
		tracker.SetCapacity(id, capacity[id])
	}

	var pending []models.Elder
	for _, e := range p.elders {
		if _, ok := next[e.ID]; ok {
			continue
		}
		if a, had := prev[e.ID]; had && !a.Filled() && !p.retryUnfilled {
			next[e.ID] = a
			continue
		}
		pending = append(pending, e)
	}

	for _, a := range r.Solver.Solve(old.Date, pending, p.roster, tracker) {
		if was, ok := prev[a.ElderID]; ok && !was.Filled() && !a.Filled() {
			a = was
		}
		next[a.ElderID] = a
	}

	ds := old
	ds.Caregivers = append([]models.Caregiver{}, p.roster...)
	ds.Elders = append([]models.Elder{}, p.elders...)
	ds.Assignments = make([]models.Assignment, 0, len(p.elders))
	for _, e := range p.elders {
		ds.Assignments = append(ds.Assignments, next[e.ID])
	}
	FinishDay(&ds)
	return ds, nil
}

func diffDay(diff *models.ScheduleDiff, before, after []models.Assignment) {
	prev := make(map[string]models.Assignment, len(before))
	for _, a := range before {
		prev[a.ElderID] = a
	}
	kept := make(map[string]bool, len(after))
	for _, a := range after {
		was, had := prev[a.ElderID]
		if had && was == a {
			diff.Unchanged = append(diff.Unchanged, a)
			kept[a.ElderID] = true
			continue
		}
		if a.Filled() {
			diff.Added = append(diff.Added, a)
		} else {
			diff.NewlyUnfilled = append(diff.NewlyUnfilled, a)
		}
	}
	for _, a := range before {
		if !kept[a.ElderID] {
			diff.Removed = append(diff.Removed, a)
		}
	}
}

func lookupDay(week *models.WeeklySchedule, date string) (models.DaySchedule, int, error) {
	day, idx := week.Day(date)
	if day == nil {
		return models.DaySchedule{}, -1, fmt.Errorf("%w: %q", ErrUnknownDay, date)
	}
	return *day, idx, nil
}

func lookupOpenDay(week *models.WeeklySchedule, date string) (models.DaySchedule, int, error) {
	day, idx, err := lookupDay(week, date)
	if err != nil {
		return day, idx, err
	}
	if day.Closed {
		return day, idx, fmt.Errorf("%w: %s", ErrDayClosed, date)
	}
	return day, idx, nil
}

func rostered(caregivers []models.Caregiver, id string) bool {
	for _, c := range caregivers {
		if c.ID == id {
			return true
		}
	}
	return false
}

func cloneWeek(w *models.WeeklySchedule) *models.WeeklySchedule {
	out := *w
	out.Days = make([]models.DaySchedule, len(w.Days))
	for i, d := range w.Days {
		d.Caregivers = append([]models.Caregiver{}, d.Caregivers...)
		for j := range d.Caregivers {
			d.Caregivers[j].TimeGrid = append([]models.Window(nil), d.Caregivers[j].TimeGrid...)
		}
		d.Elders = append([]models.Elder{}, d.Elders...)
		d.Assignments = append([]models.Assignment{}, d.Assignments...)
		out.Days[i] = d
	}
	return &out
}
