package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavshah/coverage-scheduler-go/pkg/database"
	"github.com/arnavshah/coverage-scheduler-go/pkg/export"
	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
	"github.com/arnavshah/coverage-scheduler-go/pkg/scheduler"
)

// ScheduleResponse is returned for a stored week
type ScheduleResponse struct {
	Version  int                    `json:"version"`
	Archived bool                   `json:"archived"`
	Schedule *models.WeeklySchedule `json:"schedule"`
}

// EventResponse is returned after a change event was reconciled
type EventResponse struct {
	Version int                  `json:"version"`
	Diff    *models.ScheduleDiff `json:"diff"`
}

func stored(s *database.StoredSchedule) ScheduleResponse {
	return ScheduleResponse{Version: s.Version, Archived: s.Archived, Schedule: &s.Schedule}
}

// normalize applies the service defaults an input left out
func (h *Handler) normalize(in *models.WeekInput) {
	if in.Policy == "" {
		in.Policy = h.Config.DefaultPolicy
	}
	in.Normalize(h.Config.DefaultCapacity, scheduler.DefaultWindows())
}

// ScheduleJSON builds a week for the calling agency and stores it
func (h *Handler) ScheduleJSON(c *gin.Context) {
	var input models.WeekInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.AgencyID = c.GetString("agencyID")
	h.normalize(&input)

	week, err := h.build(input)
	if err != nil {
		h.Metrics.RecordBuildError(errorKind(err))
		h.respondError(c, err)
		return
	}

	saved, err := h.Store.SaveSchedule(c.Request.Context(), week, 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	caregivers, elders := weekCounts(week)
	h.recordUsage(c, elders, caregivers, week.UnfilledCount())
	h.Log.Info("week built",
		zap.String("agency", week.AgencyID),
		zap.String("week_start", week.WeekStart),
		zap.Int("version", saved.Version),
		zap.Int("unfilled", week.UnfilledCount()),
		zap.Float64("fairness", week.FairnessScore),
	)

	c.JSON(http.StatusOK, stored(saved))
}

func (h *Handler) build(input models.WeekInput) (*models.WeeklySchedule, error) {
	s, err := scheduler.FromPolicy(input.Policy, input.Seed, input.ConfirmRate, h.Config.SolveParallelism)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	week, err := s.Build(input)
	if err != nil {
		return nil, err
	}
	h.Metrics.RecordWeek(week, time.Since(start).Seconds())
	return week, nil
}

// GetSchedule returns the current version of a week
func (h *Handler) GetSchedule(c *gin.Context) {
	saved, err := h.Store.LoadSchedule(c.Request.Context(), c.GetString("agencyID"), c.Param("week"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stored(saved))
}

// ExportCSV returns the current version of a week as CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	saved, err := h.Store.LoadSchedule(c.Request.Context(), c.GetString("agencyID"), c.Param("week"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	out, err := export.CSV(&saved.Schedule)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=schedule-"+saved.WeekStart+".csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out))
}

// PostEvent reconciles a change event against the stored week, stores the
// superseding schedule and logs the diff.
func (h *Handler) PostEvent(c *gin.Context) {
	var ev models.ChangeEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	ctx := c.Request.Context()
	agencyID := c.GetString("agencyID")
	current, err := h.Store.LoadSchedule(ctx, agencyID, c.Param("week"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if current.Archived {
		h.Metrics.RecordReconcile(ev.Type, "rejected")
		h.respondError(c, database.ErrWeekArchived)
		return
	}

	s, err := scheduler.ForWeek(&current.Schedule, h.Config.SolveParallelism)
	if err != nil {
		h.respondError(c, err)
		return
	}
	diff, err := scheduler.NewReconciler(s.Solver).Reconcile(&current.Schedule, ev)
	if err != nil {
		h.Metrics.RecordReconcile(ev.Type, "rejected")
		h.respondError(c, err)
		return
	}

	saved, err := h.Store.SaveSchedule(ctx, diff.Schedule, current.Version)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Store.RecordChange(ctx, agencyID, saved.Version, diff); err != nil {
		h.respondError(c, err)
		return
	}

	h.Metrics.RecordReconcile(ev.Type, "applied")
	h.Metrics.RecordDiff(diff)
	h.recordUsage(c, len(diff.Added)+len(diff.NewlyUnfilled), 0, len(diff.NewlyUnfilled))
	h.Log.Info("event reconciled",
		zap.String("agency", agencyID),
		zap.String("event_id", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.Strings("days", diff.Days),
		zap.Int("added", len(diff.Added)),
		zap.Int("removed", len(diff.Removed)),
		zap.Int("newly_unfilled", len(diff.NewlyUnfilled)),
		zap.Int("version", saved.Version),
	)

	c.JSON(http.StatusOK, EventResponse{Version: saved.Version, Diff: diff})
}

// ListChanges returns the change log of a week
func (h *Handler) ListChanges(c *gin.Context) {
	changes, err := h.Store.ListChanges(c.Request.Context(), c.GetString("agencyID"), c.Param("week"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes})
}

// ArchiveWeek closes a week to further events
func (h *Handler) ArchiveWeek(c *gin.Context) {
	agencyID := c.GetString("agencyID")
	if err := h.Store.ArchiveWeek(c.Request.Context(), agencyID, c.Param("week")); err != nil {
		h.respondError(c, err)
		return
	}
	h.Log.Info("week archived", zap.String("agency", agencyID), zap.String("week_start", c.Param("week")))
	c.JSON(http.StatusOK, gin.H{"message": "Week archived"})
}

// weekCounts returns the distinct caregivers and elders across a week
func weekCounts(week *models.WeeklySchedule) (caregivers, elders int) {
	cg := make(map[string]bool)
	el := make(map[string]bool)
	for _, d := range week.Days {
		for _, c := range d.Caregivers {
			cg[c.ID] = true
		}
		for _, e := range d.Elders {
			el[e.ID] = true
		}
	}
	return len(cg), len(el)
}
