package scheduler

import (
	"fmt"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

func newCaregivers(n, capacity int) []models.Caregiver {
	out := make([]models.Caregiver, n)
	for i := range out {
		out[i] = models.Caregiver{
			ID:            fmt.Sprintf("c%02d", i+1),
			Name:          fmt.Sprintf("Caregiver %d", i+1),
			DailyCapacity: capacity,
			TimeGrid:      DefaultWindows(),
		}
	}
	return out
}

func newElders(n int) []models.Elder {
	out := make([]models.Elder, n)
	for i := range out {
		out[i] = models.Elder{
			ID:      fmt.Sprintf("e%02d", i+1),
			Name:    fmt.Sprintf("Elder %d", i+1),
			GroupID: "g1",
		}
	}
	return out
}

var testWeek = []string{
	"2026-10-19", "2026-10-20", "2026-10-21", "2026-10-22",
	"2026-10-23", "2026-10-24", "2026-10-25",
}

func uniformWeek(caregivers []models.Caregiver, elders []models.Elder) (map[string][]models.Elder, map[string]models.DaySupply) {
	demand := make(map[string][]models.Elder)
	supply := make(map[string]models.DaySupply)
	for _, d := range testWeek {
		demand[d] = elders
		supply[d] = models.DaySupply{Caregivers: caregivers}
	}
	return demand, supply
}

// checkInvariants returns the first broken schedule invariant, if any.
func checkInvariants(day models.DaySchedule) error {
	capacity := make(map[string]int)
	for _, c := range day.Caregivers {
		capacity[c.ID] = c.DailyCapacity
	}
	load := make(map[string]int)
	slots := make(map[string]bool)
	records := make(map[string]int)
	for _, a := range day.Assignments {
		records[a.ElderID]++
		if !a.Filled() {
			continue
		}
		load[a.CaregiverID]++
		key := fmt.Sprintf("%s/%d", a.CaregiverID, a.SlotIndex)
		if slots[key] {
			return fmt.Errorf("%s: slot %s double-booked", day.Date, key)
		}
		slots[key] = true
	}
	for id, n := range load {
		if n > capacity[id] {
			return fmt.Errorf("%s: caregiver %s over capacity (%d > %d)", day.Date, id, n, capacity[id])
		}
	}
	if day.Closed {
		return nil
	}
	if len(day.Assignments) != len(day.Elders) {
		return fmt.Errorf("%s: %d records for %d elders", day.Date, len(day.Assignments), len(day.Elders))
	}
	for _, e := range day.Elders {
		if records[e.ID] != 1 {
			return fmt.Errorf("%s: elder %s has %d records", day.Date, e.ID, records[e.ID])
		}
	}
	return nil
}
