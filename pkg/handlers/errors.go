package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/coverage-scheduler-go/pkg/database"
	"github.com/arnavshah/coverage-scheduler-go/pkg/scheduler"
)

// statusFor maps engine and store errors to HTTP status codes
func statusFor(err error) int {
	var (
		gridErr      *scheduler.InvalidGridError
		caregiverErr *scheduler.UnknownCaregiverError
		elderErr     *scheduler.UnknownElderError
		dupElder     *scheduler.DuplicateElderError
		dupCaregiver *scheduler.DuplicateCaregiverError
	)
	switch {
	case errors.As(err, &gridErr),
		errors.Is(err, scheduler.ErrInvalidWeek),
		errors.Is(err, scheduler.ErrInvalidCapacity),
		errors.Is(err, scheduler.ErrUnknownPolicy),
		errors.Is(err, scheduler.ErrUnsupportedEvent):
		return http.StatusUnprocessableEntity
	case errors.As(err, &caregiverErr),
		errors.As(err, &elderErr),
		errors.Is(err, scheduler.ErrUnknownDay),
		errors.Is(err, database.ErrScheduleNotFound):
		return http.StatusNotFound
	case errors.As(err, &dupElder),
		errors.As(err, &dupCaregiver),
		errors.Is(err, scheduler.ErrDayClosed),
		errors.Is(err, database.ErrWeekArchived),
		errors.Is(err, database.ErrVersionConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// errorKind labels a rejected build for metrics
func errorKind(err error) string {
	var (
		gridErr      *scheduler.InvalidGridError
		dupElder     *scheduler.DuplicateElderError
		dupCaregiver *scheduler.DuplicateCaregiverError
	)
	switch {
	case errors.As(err, &gridErr):
		return "invalid_grid"
	case errors.Is(err, scheduler.ErrInvalidWeek):
		return "invalid_week"
	case errors.Is(err, scheduler.ErrInvalidCapacity):
		return "invalid_capacity"
	case errors.Is(err, scheduler.ErrUnknownPolicy):
		return "unknown_policy"
	case errors.As(err, &dupElder), errors.As(err, &dupCaregiver):
		return "duplicate"
	}
	return "other"
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
