package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arnavshah/coverage-scheduler-go/pkg/auth"
	"github.com/arnavshah/coverage-scheduler-go/pkg/config"
	"github.com/arnavshah/coverage-scheduler-go/pkg/database"
	"github.com/arnavshah/coverage-scheduler-go/pkg/handlers"
	"github.com/arnavshah/coverage-scheduler-go/pkg/logger"
	"github.com/arnavshah/coverage-scheduler-go/pkg/metrics"
)

var r http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		log.Fatal("could not open database", zap.Error(err))
	}
	authn := auth.New(cfg.JWTSecret, cfg.APIMasterSecret, cfg.BcryptCost)
	if _, err := authn.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error("could not ensure admin user", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	reg := prometheus.NewRegistry()
	h := handlers.New(db, authn, metrics.NewCollector(reg), log, cfg)
	r = handlers.NewRouter(h, reg)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
