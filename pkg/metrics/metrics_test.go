package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
)

func TestNewCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	assert.NotNil(t, c.weeksBuilt, "weeksBuilt counter should be initialized")
	assert.NotNil(t, c.assignments, "assignments counter should be initialized")
	assert.NotNil(t, c.solveDuration, "solveDuration histogram should be initialized")

	// A second collector on the same registry must be rejected.
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestRecordWeek(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	week := &models.WeeklySchedule{
		FairnessScore: 87.5,
		Days: []models.DaySchedule{{
			Assignments: []models.Assignment{
				{ElderID: "a", Status: models.StatusScheduled},
				{ElderID: "b", Status: models.StatusScheduled},
				{ElderID: "c", Status: models.StatusUnfilled},
			},
		}},
	}
	c.RecordWeek(week, 0.002)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.weeksBuilt))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.assignments.WithLabelValues("scheduled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.assignments.WithLabelValues("unfilled")))
	assert.Equal(t, 87.5, testutil.ToFloat64(c.fairness))
}

func TestRecordReconcileAndErrors(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordReconcile(models.EventCaregiverUnavailable, "ok")
	c.RecordReconcile(models.EventCaregiverUnavailable, "ok")
	c.RecordReconcile(models.EventElderRemoved, "unknown_elder")
	c.RecordBuildError("invalid_grid")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.reconciles.WithLabelValues("caregiver_unavailable", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.reconciles.WithLabelValues("elder_removed", "unknown_elder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.buildErrors.WithLabelValues("invalid_grid")))

	c.RecordDiff(&models.ScheduleDiff{
		Added:         []models.Assignment{{Status: models.StatusConfirmed}},
		NewlyUnfilled: []models.Assignment{{Status: models.StatusUnfilled}},
	})
	require.Equal(t, 1.0, testutil.ToFloat64(c.assignments.WithLabelValues("confirmed")))
}
