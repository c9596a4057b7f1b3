package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/jitenkr2030/Rail-Clean/internal/config"
	"github.com/jitenkr2030/Rail-Clean/internal/logging"
	"github.com/jitenkr2030/Rail-Clean/internal/repository"
	"github.com/jitenkr2030/Rail-Clean/internal/seed"
	"github.com/jitenkr2030/Rail-Clean/internal/store"
)

// seed loads fixture data into the database named by DB_URL. With -fixtures it
// reads a YAML file instead of the built-in fixtures.
func main() {
	fixturesPath := flag.String("fixtures", "", "path to a fixtures YAML file (default: built-in)")
	flag.Parse()

	logger := logging.New(os.Stderr, "info")
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatal().Err(err).Msg("load .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	logger = logging.New(os.Stderr, cfg.LogLevel)

	fx, err := loadFixtures(*fixturesPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load fixtures")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:               2,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	summary, err := seed.Apply(ctx, repository.New(st), fx, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to seed database")
		st.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{
		"success": true,
		"message": "Database seeded successfully",
		"data":    summary,
	})
}

func loadFixtures(path string) (seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return seed.Fixtures{}, err
	}
	return seed.Parse(data)
}
