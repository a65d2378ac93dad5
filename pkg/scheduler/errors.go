package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWeek is returned when a week is not seven strictly increasing dates.
	ErrInvalidWeek = errors.New("invalid week")

	// ErrUnknownDay is returned when an event references a date outside the schedule.
	ErrUnknownDay = errors.New("unknown day")

	// ErrDayClosed is returned when demand changes target a closed day.
	ErrDayClosed = errors.New("day is closed")

	// ErrUnsupportedEvent is returned for change events the reconciler does not handle.
	ErrUnsupportedEvent = errors.New("unsupported change event")

	// ErrInvalidCapacity is returned for negative caregiver capacities.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrUnknownPolicy is returned when a candidate order policy name is not recognised.
	ErrUnknownPolicy = errors.New("unknown candidate order policy")
)

// InvalidGridError reports a malformed time grid. It aborts the whole build.
type InvalidGridError struct {
	Day         string
	CaregiverID string
	Index       int
	Reason      string
}

func (e *InvalidGridError) Error() string {
	msg := fmt.Sprintf("invalid time grid at slot %d: %s", e.Index, e.Reason)
	if e.CaregiverID != "" {
		msg = fmt.Sprintf("caregiver %s: %s", e.CaregiverID, msg)
	}
	if e.Day != "" {
		msg = fmt.Sprintf("%s: %s", e.Day, msg)
	}
	return msg
}

// UnknownCaregiverError is returned when a change event names a caregiver
// absent from the schedule.
type UnknownCaregiverError struct {
	CaregiverID string
	Day         string
}

func (e *UnknownCaregiverError) Error() string {
	if e.Day == "" {
		return fmt.Sprintf("unknown caregiver %q", e.CaregiverID)
	}
	return fmt.Sprintf("unknown caregiver %q on %s", e.CaregiverID, e.Day)
}

// UnknownElderError is returned when a change event names an elder absent
// from the day's demand.
type UnknownElderError struct {
	ElderID string
	Day     string
}

func (e *UnknownElderError) Error() string {
	return fmt.Sprintf("unknown elder %q on %s", e.ElderID, e.Day)
}

// DuplicateElderError is returned when an elder appears twice in one day's demand.
type DuplicateElderError struct {
	ElderID string
	Day     string
}

func (e *DuplicateElderError) Error() string {
	return fmt.Sprintf("elder %q listed twice on %s", e.ElderID, e.Day)
}

// DuplicateCaregiverError is returned when a caregiver appears twice in one day's roster.
type DuplicateCaregiverError struct {
	CaregiverID string
	Day         string
}

func (e *DuplicateCaregiverError) Error() string {
	return fmt.Sprintf("caregiver %q listed twice on %s", e.CaregiverID, e.Day)
}
