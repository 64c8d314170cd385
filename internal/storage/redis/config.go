package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// RoomTTL applies to all room-scoped keys (rooms, players, questions,
	// answers); rooms are short-lived sessions
	RoomTTL time.Duration

	// PoolQuestionLimit caps the retained global question pool
	PoolQuestionLimit int
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:               "redis://localhost:6379",
		PoolSize:          10,
		MinIdleConns:      2,
		RoomTTL:           24 * time.Hour,
		PoolQuestionLimit: 500,
	}
}
