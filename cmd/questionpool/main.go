// Command questionpool tops up the shared question pool. Run it on a
// schedule (cron or similar) so rooms draw from a pre-stocked pool instead
// of paying generation latency mid-game.
package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/supply"
	redisstorage "github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage/redis"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load .env if present; real environment wins
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded configuration from .env")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Error("GEMINI_API_KEY required for pool generation")
		os.Exit(1)
	}

	// The pool only makes sense in shared storage; the in-memory backend
	// would vanish with this process.
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		logger.Error("REDIS_URL required; the pool lives in shared storage")
		os.Exit(1)
	}

	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = redisURL
	store, err := redisstorage.New(redisCfg)
	if err != nil {
		logger.Error("failed to connect to storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	generator := supply.NewGenerator(store, supply.GeneratorConfig{
		Endpoint: os.Getenv("GEMINI_ENDPOINT"),
		APIKey:   apiKey,
	}, clockwork.NewRealClock(), logger)

	batches := 1
	if n, err := strconv.Atoi(os.Getenv("POOL_BATCHES")); err == nil && n > 0 {
		batches = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for i := 0; i < batches; i++ {
		if err := generator.RefillPool(ctx); err != nil {
			logger.Error("pool refill failed",
				slog.Int("batch", i+1),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("pool refill complete", slog.Int("batches", batches))
}
