package models

// DefaultCapacity is the number of elders a caregiver may cover per day when
// the roster does not say otherwise.
const DefaultCapacity = 3

// Status is the outcome recorded for an elder on a day
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusScheduled Status = "scheduled"
	StatusUnfilled  Status = "unfilled"
)

// Window is a wall-clock (start, end) pair in "15:04" form
type Window struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Caregiver represents a person on the roster for a day
type Caregiver struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	DailyCapacity int      `json:"daily_capacity" yaml:"daily_capacity"`
	TimeGrid      []Window `json:"time_grid,omitempty" yaml:"time_grid,omitempty"`
}

// Elder represents a person who needs coverage
type Elder struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	GroupID string `json:"group_id,omitempty" yaml:"group_id,omitempty"`
}

// TimeSlot is one window of a validated time grid
type TimeSlot struct {
	Index           int    `json:"index"`
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Assignment is the single record kept for an elder on a day.
// Unfilled records have an empty CaregiverID and a SlotIndex of -1.
type Assignment struct {
	ElderID     string `json:"elder_id"`
	CaregiverID string `json:"caregiver_id,omitempty"`
	Day         string `json:"day"`
	SlotIndex   int    `json:"slot_index"`
	SlotStart   string `json:"slot_start,omitempty"`
	SlotEnd     string `json:"slot_end,omitempty"`
	Status      Status `json:"status"`
	Reason      string `json:"reason,omitempty"`
}

// Filled reports whether a caregiver holds the record
func (a Assignment) Filled() bool {
	return a.Status != StatusUnfilled
}

// DaySupply is the roster side of a day's input. Closed days produce no records.
type DaySupply struct {
	Closed         bool        `json:"closed,omitempty" yaml:"closed,omitempty"`
	CoverageTarget float64     `json:"coverage_target,omitempty" yaml:"coverage_target,omitempty"`
	Caregivers     []Caregiver `json:"caregivers" yaml:"caregivers"`
}

// DaySchedule holds the inputs and the records produced for one day
type DaySchedule struct {
	Date           string       `json:"date"`
	Closed         bool         `json:"closed,omitempty"`
	CoverageTarget float64      `json:"coverage_target,omitempty"`
	Coverage       float64      `json:"coverage"`
	TargetMet      bool         `json:"target_met"`
	Caregivers     []Caregiver  `json:"caregivers"`
	Elders         []Elder      `json:"elders"`
	Assignments    []Assignment `json:"assignments"`
}

// WeeklySchedule is the engine output for seven consecutive days
type WeeklySchedule struct {
	AgencyID      string        `json:"agency_id,omitempty"`
	WeekStart     string        `json:"week_start"`
	Policy        string        `json:"policy"`
	Seed          int64         `json:"seed"`
	ConfirmRate   float64       `json:"confirm_rate,omitempty"`
	FairnessScore float64       `json:"fairness_score"`
	Days          []DaySchedule `json:"days"`
}

// Day returns the schedule for a date and its position in the week
func (w *WeeklySchedule) Day(date string) (*DaySchedule, int) {
	for i := range w.Days {
		if w.Days[i].Date == date {
			return &w.Days[i], i
		}
	}
	return nil, -1
}

// UnfilledCount returns the number of unfilled records across the week
func (w *WeeklySchedule) UnfilledCount() int {
	n := 0
	for _, d := range w.Days {
		for _, a := range d.Assignments {
			if !a.Filled() {
				n++
			}
		}
	}
	return n
}

// WeekInput is the data structure for the scheduling endpoint and CLI.
// ConfirmRate is the share of filled records marked confirmed; 0 marks every
// filled record scheduled.
type WeekInput struct {
	AgencyID    string               `json:"agency_id,omitempty" yaml:"agency_id,omitempty"`
	Days        []string             `json:"days" yaml:"days"`
	Demand      map[string][]Elder   `json:"demand" yaml:"demand"`
	Supply      map[string]DaySupply `json:"supply" yaml:"supply"`
	Policy      string               `json:"policy,omitempty" yaml:"policy,omitempty"`
	Seed        int64                `json:"seed,omitempty" yaml:"seed,omitempty"`
	ConfirmRate float64              `json:"confirm_rate,omitempty" yaml:"confirm_rate,omitempty"`
}

// Normalize fills boundary defaults: missing capacities and missing grids.
func (in *WeekInput) Normalize(defaultCapacity int, defaultGrid []Window) {
	for day, supply := range in.Supply {
		for i := range supply.Caregivers {
			c := &supply.Caregivers[i]
			if c.DailyCapacity == 0 {
				c.DailyCapacity = defaultCapacity
			}
			if len(c.TimeGrid) == 0 {
				c.TimeGrid = append([]Window(nil), defaultGrid...)
			}
		}
		in.Supply[day] = supply
	}
}

// EventType names a roster or demand change
type EventType string

const (
	EventCaregiverUnavailable EventType = "caregiver_unavailable"
	EventElderAdded           EventType = "elder_added"
	EventElderRemoved         EventType = "elder_removed"
	EventCapacityChanged      EventType = "capacity_changed"
)

// ChangeEvent is emitted by operational tooling when the roster or demand changes
type ChangeEvent struct {
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Type        EventType `json:"type" yaml:"type"`
	Date        string    `json:"date,omitempty" yaml:"date,omitempty"`
	CaregiverID string    `json:"caregiver_id,omitempty" yaml:"caregiver_id,omitempty"`
	ElderID     string    `json:"elder_id,omitempty" yaml:"elder_id,omitempty"`
	Elder       *Elder    `json:"elder,omitempty" yaml:"elder,omitempty"`
	Capacity    *int      `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// ScheduleDiff describes how a reconcile superseded records
type ScheduleDiff struct {
	Event         ChangeEvent     `json:"event"`
	Days          []string        `json:"days"`
	Added         []Assignment    `json:"added"`
	Removed       []Assignment    `json:"removed"`
	Unchanged     []Assignment    `json:"unchanged"`
	NewlyUnfilled []Assignment    `json:"newly_unfilled"`
	Schedule      *WeeklySchedule `json:"schedule"`
}

// ValidationResult is returned by the validate endpoint and CLI command
type ValidationResult struct {
	Valid          bool   `json:"valid"`
	Error          string `json:"error,omitempty"`
	DayCount       int    `json:"day_count"`
	CaregiverCount int    `json:"caregiver_count"`
	ElderCount     int    `json:"elder_count"`
}
