package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/client"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/dependencies/random"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/room"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/scoring"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/services/supply"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage/memory"
	redisstorage "github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/storage/redis"
	"github.com/techzonexmsms-dotcom/gemini-quiz-arena/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock  clockwork.Clock
	Random random.Random

	// Services
	Supply         supply.Supply
	RoomController *room.Controller
	ScoringLedger  *scoring.Ledger
	HubManager     *sse.HubManager
	Relay          *sse.Relay
	Sessions       *client.Manager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// GeminiAPIKey enables the generative question supply. If empty, a
	// built-in static question list is used instead.
	GeminiAPIKey string
	// GeminiEndpoint overrides the generation endpoint (optional)
	GeminiEndpoint string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clockwork.NewRealClock()
	rnd := random.New()

	// Pick the question supply
	var questionSupply supply.Supply
	if cfg.GeminiAPIKey != "" {
		questionSupply = supply.NewGenerator(store, supply.GeneratorConfig{
			Endpoint: cfg.GeminiEndpoint,
			APIKey:   cfg.GeminiAPIKey,
		}, clk, logger)
	} else {
		logger.Info("no generation API key; using built-in question list")
		questionSupply = supply.NewStatic(store, clk, supply.DefaultQuestions())
	}

	return newWithDependencies(store, questionSupply, clk, rnd, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Store,
	questionSupply supply.Supply,
	clk clockwork.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *App {
	roomController := room.NewController(store, questionSupply, clk, rnd, logger)
	scoringLedger := scoring.NewLedger(store, roomController, clk, logger)
	hubManager := sse.NewHubManager(logger)
	relay := sse.NewRelay(store, hubManager, logger)
	sessions := client.NewManager(store, roomController, scoringLedger, clk, logger)

	return &App{
		Store:          store,
		Clock:          clk,
		Random:         rnd,
		Supply:         questionSupply,
		RoomController: roomController,
		ScoringLedger:  scoringLedger,
		HubManager:     hubManager,
		Relay:          relay,
		Sessions:       sessions,
	}
}
