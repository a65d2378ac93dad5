package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/coverage-scheduler-go/pkg/scheduler"
	"github.com/arnavshah/coverage-scheduler-go/pkg/simulate"
)

// SimulateRequest describes a generated fixture week
type SimulateRequest struct {
	Seed           int64    `json:"seed"`
	WeekStart      string   `json:"week_start"`
	Caregivers     int      `json:"caregivers" binding:"gte=0,lte=500"`
	Elders         int      `json:"elders" binding:"gte=0,lte=5000"`
	Groups         int      `json:"groups" binding:"gte=0,lte=100"`
	Capacity       int      `json:"capacity" binding:"gte=0,lte=48"`
	ClosedDays     []string `json:"closed_days"`
	CoverageTarget float64  `json:"coverage_target" binding:"gte=0,lte=1"`
	Policy         string   `json:"policy"`
	Solve          bool     `json:"solve"`
}

// Simulate generates a seeded week input and optionally solves it. Nothing
// is stored.
func (h *Handler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := simulate.Options{
		Seed:           req.Seed,
		Caregivers:     req.Caregivers,
		Elders:         req.Elders,
		Groups:         req.Groups,
		Capacity:       req.Capacity,
		CoverageTarget: req.CoverageTarget,
	}
	if req.WeekStart != "" {
		start, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "week_start must be YYYY-MM-DD"})
			return
		}
		opts.WeekStart = start
	}
	closed, err := simulate.ParseWeekdays(req.ClosedDays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts.ClosedDays = closed

	input, err := simulate.NewGenerator(opts).Week(c.GetString("agencyID"), scheduler.DefaultWindows())
	if err != nil {
		h.respondError(c, err)
		return
	}
	input.Policy = req.Policy
	input.Seed = req.Seed

	resp := gin.H{"input": input}
	if req.Solve {
		h.normalize(&input)
		week, err := h.build(input)
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp["schedule"] = week
	}
	c.JSON(http.StatusOK, resp)
}

