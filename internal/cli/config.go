package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	StateFile string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("QUIZARENA_SERVER", "http://localhost:8080"),
		StateFile: getEnvOrDefault("QUIZARENA_STATE_FILE", defaultStateFile()),
		Output:    "text",
		Verbose:   false,
	}
}

// State is the saved identity from the last create or join
type State struct {
	RoomCode string `json:"room_code"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// LoadState reads the saved state, returning an empty state if none exists
func (c *Config) LoadState() (State, error) {
	var state State

	data, err := os.ReadFile(c.StateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, err
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, err
	}
	return state, nil
}

// SaveState persists the identity for later commands
func (c *Config) SaveState(state State) error {
	dir := filepath.Dir(c.StateFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(c.StateFile, data, 0600)
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quizarena/state.json"
	}
	return filepath.Join(home, ".quizarena", "state.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
