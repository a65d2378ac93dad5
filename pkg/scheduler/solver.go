package scheduler

import (
	"fmt"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

// Solver assigns elders to caregivers for a single day
type Solver struct {
	Order  CandidateOrder
	Status StatusPolicy
}

// NewSolver creates a solver. Nil arguments fall back to least-loaded order
// and the scheduled status.
func NewSolver(order CandidateOrder, status StatusPolicy) *Solver {
	if order == nil {
		order = LeastLoaded{}
	}
	if status == nil {
		status = FixedStatus(models.StatusScheduled)
	}
	return &Solver{Order: order, Status: status}
}

// Solve walks the demand in the given order and places each elder on the
// first candidate whose earliest open slot can be occupied. Elders nobody can
// take get an unfilled record. Every caregiver must already be registered on
// the tracker. A repeated elder id is solved once.
func (s *Solver) Solve(day string, elders []models.Elder, caregivers []models.Caregiver, tracker *CapacityTracker) []models.Assignment {
	out := make([]models.Assignment, 0, len(elders))
	seen := make(map[string]bool, len(elders))

	for pos, elder := range elders {
		if seen[elder.ID] {
			continue
		}
		seen[elder.ID] = true

		atCapacity := 0
		placed := false
		for _, cg := range s.Order.Candidates(day, pos, caregivers, tracker) {
			slot, ok := tracker.FirstOpenSlot(cg.ID, day)
			if !ok || !tracker.TryOccupy(cg.ID, day, slot) {
				atCapacity++
				continue
			}

			asgn := models.Assignment{
				ElderID:     elder.ID,
				CaregiverID: cg.ID,
				Day:         day,
				SlotIndex:   slot,
				Status:      s.Status(elder, cg, day),
			}
			if grid, ok := tracker.Grid(cg.ID); ok {
				if ts, ok := grid.SlotAt(slot); ok {
					asgn.SlotStart = ts.Start
					asgn.SlotEnd = ts.End
				}
			}
			out = append(out, asgn)
			placed = true
			break
		}

		if !placed {
			out = append(out, Unfilled(elder.ID, day, unfilledReason(len(caregivers), atCapacity)))
		}
	}
	return out
}

// Unfilled builds the record for an elder nobody could cover
func Unfilled(elderID, day, reason string) models.Assignment {
	return models.Assignment{
		ElderID:   elderID,
		Day:       day,
		SlotIndex: -1,
		Status:    models.StatusUnfilled,
		Reason:    reason,
	}
}

func unfilledReason(rostered, atCapacity int) string {
	if rostered == 0 {
		return "no caregivers rostered"
	}
	if atCapacity == 1 {
		return "1 caregiver was at capacity"
	}
	return fmt.Sprintf("%d caregivers were at capacity", atCapacity)
}
