package scheduler

import (
	"time"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

const clockLayout = "15:04"

// DefaultWindows returns three 150-minute windows for a working day
func DefaultWindows() []models.Window {
	return []models.Window{
		{Start: "08:00", End: "10:30"},
		{Start: "11:00", End: "13:30"},
		{Start: "14:00", End: "16:30"},
	}
}

// TimeGrid is a validated partition of a working day into ordered,
// non-overlapping slots. It is immutable once built.
type TimeGrid struct {
	slots []models.TimeSlot
	start []int
	end   []int
}

// NewTimeGrid validates the windows and builds a grid. Windows must each be
// non-empty and appear in strictly increasing, non-overlapping order.
func NewTimeGrid(windows []models.Window) (*TimeGrid, error) {
	if len(windows) == 0 {
		return nil, &InvalidGridError{Index: 0, Reason: "grid has no slots"}
	}

	g := &TimeGrid{
		slots: make([]models.TimeSlot, 0, len(windows)),
		start: make([]int, 0, len(windows)),
		end:   make([]int, 0, len(windows)),
	}
	for i, w := range windows {
		start, err := minuteOfDay(w.Start)
		if err != nil {
			return nil, &InvalidGridError{Index: i, Reason: "bad start " + w.Start}
		}
		end, err := minuteOfDay(w.End)
		if err != nil {
			return nil, &InvalidGridError{Index: i, Reason: "bad end " + w.End}
		}
		if end <= start {
			return nil, &InvalidGridError{Index: i, Reason: "slot ends before it starts"}
		}
		if i > 0 {
			prevStart, prevEnd := g.start[i-1], g.end[i-1]
			if start < prevStart {
				return nil, &InvalidGridError{Index: i, Reason: "slot out of order"}
			}
			if Overlap(prevStart, prevEnd, start, end) {
				return nil, &InvalidGridError{Index: i, Reason: "slot overlaps previous slot"}
			}
		}

		g.start = append(g.start, start)
		g.end = append(g.end, end)
		g.slots = append(g.slots, models.TimeSlot{
			Index:           i,
			Start:           w.Start,
			End:             w.End,
			DurationMinutes: end - start,
		})
	}
	return g, nil
}

// SlotCount returns the number of slots in the grid
func (g *TimeGrid) SlotCount() int {
	return len(g.slots)
}

// SlotAt returns the slot at index. ok is false when index is out of range.
func (g *TimeGrid) SlotAt(index int) (models.TimeSlot, bool) {
	if index < 0 || index >= len(g.slots) {
		return models.TimeSlot{}, false
	}
	return g.slots[index], true
}

// Overlap checks if two half-open minute ranges overlap
func Overlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

func minuteOfDay(clock string) (int, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
