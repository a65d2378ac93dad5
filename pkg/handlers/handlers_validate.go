package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/coverage-scheduler-go/pkg/models"
	"github.com/arnavshah/coverage-scheduler-go/pkg/scheduler"
)

// ValidateInput checks a week input without solving it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.WeekInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ValidationResult{
			Valid: false,
			Error: err.Error(),
		})
		return
	}
	h.normalize(&input)

	c.JSON(http.StatusOK, scheduler.ValidateInput(input))
}
