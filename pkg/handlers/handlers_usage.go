package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/coverage-scheduler-go/pkg/database"
)

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	usage, err := h.Store.Usage(c.Request.Context(), apiKey.ID, 30)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	// Calculate totals
	var totalRequests, totalElders, totalCaregivers, totalUnfilled int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalElders += int64(u.TotalElders)
		totalCaregivers += int64(u.TotalCaregivers)
		totalUnfilled += int64(u.TotalUnfilled)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests":   totalRequests,
			"elders":     totalElders,
			"caregivers": totalCaregivers,
			"unfilled":   totalUnfilled,
		},
	})
}
