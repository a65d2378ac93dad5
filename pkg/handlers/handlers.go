package handlers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/arnavshah/coverage-scheduler-go/pkg/auth"
	"github.com/arnavshah/coverage-scheduler-go/pkg/config"
	"github.com/arnavshah/coverage-scheduler-go/pkg/database"
	"github.com/arnavshah/coverage-scheduler-go/pkg/metrics"
)

const defaultDailyLimit = 10000

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Store   *database.Store
	Auth    *auth.Authenticator
	Metrics *metrics.Collector
	Log     *zap.Logger
	Config  *config.Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New wires a Handler. A nil logger is replaced by a no-op logger.
func New(db *gorm.DB, authn *auth.Authenticator, collector *metrics.Collector, log *zap.Logger, cfg *config.Config) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		DB:       db,
		Store:    database.NewStore(db),
		Auth:     authn,
		Metrics:  collector,
		Log:      log,
		Config:   cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	// Strip "Bearer " if present
	return strings.TrimPrefix(token, "Bearer ")
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the agency API key, enforces the key's daily
// quota and the per-agency request rate.
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		agencyID, err := h.Auth.VerifyAgencyKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		// Keys minted offline by keygen get a record on first use
		var apiKey database.APIKey
		if err := h.DB.Where(database.APIKey{Key: key}).Attrs(database.APIKey{
			KeyPreview: keyPreview(key),
			Name:       agencyID,
			RateLimit:  defaultDailyLimit,
		}).FirstOrCreate(&apiKey).Error; err != nil {
			h.Log.Error("api key lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}
		if apiKey.Revoked() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}

		used, err := h.Store.RequestsToday(c.Request.Context(), apiKey.ID)
		if err != nil {
			h.Log.Error("usage lookup failed", zap.Error(err))
		} else if used >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily request limit reached"})
			return
		}

		if !h.limiter(agencyID).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}

		now := time.Now()
		h.DB.Model(&apiKey).Update("last_used", &now)

		c.Set("apiKey", &apiKey)
		c.Set("agencyID", agencyID)
		c.Next()
	}
}

// limiter returns the token bucket for an agency. A non-positive
// RATE_LIMIT_PER_MIN disables limiting.
func (h *Handler) limiter(agencyID string) *rate.Limiter {
	perMin := h.Config.RateLimitPerMin
	if perMin <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[agencyID]
	if !ok {
		l = rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)
		h.limiters[agencyID] = l
	}
	return l
}

// recordUsage adds a request to the calling key's daily usage
func (h *Handler) recordUsage(c *gin.Context, elders, caregivers, unfilled int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	if err := h.Store.RecordUsage(c.Request.Context(), apiKey.ID, elders, caregivers, unfilled); err != nil {
		h.Log.Warn("could not record usage", zap.Uint("key_id", apiKey.ID), zap.Error(err))
	}
}

// Root reports the service name and version
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Coverage Scheduler API",
		"version": "1.0.0",
	})
}
