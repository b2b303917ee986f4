package main

import (
	"fmt"
	"os"

	"github.com/oggyb/swipe-server/internal/auth"
	"github.com/oggyb/swipe-server/internal/config"
	"github.com/oggyb/swipe-server/internal/db"
	"github.com/oggyb/swipe-server/internal/logger"
)

func main() {
	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	seeded, err := db.SeedTestData(database, cfg.Pricing.StartingCoins)
	if err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}

	// Tokens go to stdout so they can be piped; logs stay on the logger.
	for _, u := range seeded {
		tok, err := auth.GenerateToken(u.ID, []byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)
		if err != nil {
			log.Error("failed to sign token", "user_id", u.ID, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%d\t%s\t%s\n", u.ID, u.Username, tok)
	}

	log.Info("seeding completed", "users", len(seeded))
}
