package scheduler

import (
	"errors"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

type loadKey struct {
	caregiverID string
	day         string
}

// dayLoad is the CaregiverDayLoad: occupied slot indices for one caregiver on one day
type dayLoad struct {
	occupied []bool
	count    int
}

type caregiverEntry struct {
	capacity int
	grid     *TimeGrid
}

// CapacityTracker owns per-caregiver, per-day occupancy for a single solve.
// It is not safe for concurrent use; each solve builds its own.
type CapacityTracker struct {
	caregivers map[string]*caregiverEntry
	loads      map[loadKey]*dayLoad
}

// NewCapacityTracker creates an empty tracker
func NewCapacityTracker() *CapacityTracker {
	return &CapacityTracker{
		caregivers: make(map[string]*caregiverEntry),
		loads:      make(map[loadKey]*dayLoad),
	}
}

// Register validates the caregiver's grid and makes it available for occupancy.
// Registering the same id again replaces its capacity and grid.
func (t *CapacityTracker) Register(c models.Caregiver) error {
	if c.DailyCapacity < 0 {
		return ErrInvalidCapacity
	}
	grid, err := NewTimeGrid(c.TimeGrid)
	if err != nil {
		var ge *InvalidGridError
		if errors.As(err, &ge) {
			ge.CaregiverID = c.ID
		}
		return err
	}
	t.caregivers[c.ID] = &caregiverEntry{capacity: c.DailyCapacity, grid: grid}
	return nil
}

// Grid returns the grid registered for a caregiver
func (t *CapacityTracker) Grid(caregiverID string) (*TimeGrid, bool) {
	e, ok := t.caregivers[caregiverID]
	if !ok {
		return nil, false
	}
	return e.grid, true
}

// SetCapacity changes a registered caregiver's daily capacity. Existing
// occupancy is left in place; callers release any excess first.
func (t *CapacityTracker) SetCapacity(caregiverID string, capacity int) bool {
	e, ok := t.caregivers[caregiverID]
	if !ok || capacity < 0 {
		return false
	}
	e.capacity = capacity
	return true
}

func (t *CapacityTracker) load(caregiverID, day string, create bool) *dayLoad {
	key := loadKey{caregiverID, day}
	l, ok := t.loads[key]
	if !ok && create {
		e := t.caregivers[caregiverID]
		l = &dayLoad{occupied: make([]bool, e.grid.SlotCount())}
		t.loads[key] = l
	}
	return l
}

// TryOccupy records occupancy iff the caregiver is below capacity for the day
// and the slot is free. Both invariants are checked in the same call.
func (t *CapacityTracker) TryOccupy(caregiverID, day string, slotIndex int) bool {
	e, ok := t.caregivers[caregiverID]
	if !ok || slotIndex < 0 || slotIndex >= e.grid.SlotCount() {
		return false
	}
	l := t.load(caregiverID, day, true)
	if l.count >= e.capacity || l.occupied[slotIndex] {
		return false
	}
	l.occupied[slotIndex] = true
	l.count++
	return true
}

// Release frees an occupied slot. It reports whether anything was freed.
func (t *CapacityTracker) Release(caregiverID, day string, slotIndex int) bool {
	l := t.load(caregiverID, day, false)
	if l == nil || slotIndex < 0 || slotIndex >= len(l.occupied) || !l.occupied[slotIndex] {
		return false
	}
	l.occupied[slotIndex] = false
	l.count--
	return true
}

// FirstOpenSlot returns the lowest free slot index, or false when the
// caregiver is at capacity or every slot is taken.
func (t *CapacityTracker) FirstOpenSlot(caregiverID, day string) (int, bool) {
	e, ok := t.caregivers[caregiverID]
	if !ok {
		return -1, false
	}
	l := t.load(caregiverID, day, false)
	if l == nil {
		if e.capacity > 0 && e.grid.SlotCount() > 0 {
			return 0, true
		}
		return -1, false
	}
	if l.count >= e.capacity {
		return -1, false
	}
	for i, taken := range l.occupied {
		if !taken {
			return i, true
		}
	}
	return -1, false
}

// Load returns how many elders the caregiver covers on the day
func (t *CapacityTracker) Load(caregiverID, day string) int {
	if l := t.load(caregiverID, day, false); l != nil {
		return l.count
	}
	return 0
}

// Occupied returns the occupied slot indices in ascending order
func (t *CapacityTracker) Occupied(caregiverID, day string) []int {
	l := t.load(caregiverID, day, false)
	if l == nil {
		return nil
	}
	var out []int
	for i, taken := range l.occupied {
		if taken {
			out = append(out, i)
		}
	}
	return out
}
