package main

import (
	"fmt"
	"os"

	"github.com/arnavshah/coverage-scheduler-go/pkg/auth"
	"github.com/arnavshah/coverage-scheduler-go/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/keygen <agencyID>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if cfg.APIMasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in environment or .env")
		os.Exit(1)
	}

	agencyID := os.Args[1]
	apiKey := auth.New(cfg.JWTSecret, cfg.APIMasterSecret, cfg.BcryptCost).GenerateAgencyKey(agencyID)
	fmt.Printf("Generated Key for %s:\n%s\n", agencyID, apiKey)
}
