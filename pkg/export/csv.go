package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

var csvHeader = []string{"day", "elder_id", "caregiver_id", "slot_index", "slot_start", "slot_end", "status", "reason"}

// WriteCSV writes one row per assignment record, in day order
func WriteCSV(w io.Writer, week *models.WeeklySchedule) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, d := range week.Days {
		for _, a := range d.Assignments {
			slot := ""
			if a.Filled() {
				slot = strconv.Itoa(a.SlotIndex)
			}
			if err := writer.Write([]string{
				a.Day,
				a.ElderID,
				a.CaregiverID,
				slot,
				a.SlotStart,
				a.SlotEnd,
				string(a.Status),
				a.Reason,
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSV returns the week as a CSV document
func CSV(week *models.WeeklySchedule) (string, error) {
	var out strings.Builder
	if err := WriteCSV(&out, week); err != nil {
		return "", err
	}
	return out.String(), nil
}
