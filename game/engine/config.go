package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LevelConfig describes a puzzle layout loaded from a JSON file
type LevelConfig struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Exit        Position     `json:"exit"`
	Pieces      []Piece      `json:"pieces"`
	AllowPush   *bool        `json:"allow_push,omitempty"`
	Messages    LevelMessage `json:"messages"`
}

// LevelMessage holds the player-facing texts of a level
type LevelMessage struct {
	Welcome string `json:"welcome"`
	Solved  string `json:"solved"`
	Blocked string `json:"blocked"`
}

// PushEnabled reports whether pieces may push each other. Pushing is on
// unless the level turns it off explicitly.
func (c *LevelConfig) PushEnabled() bool {
	return c.AllowPush == nil || *c.AllowPush
}

// ValidateLevelConfig validates a level configuration for correctness
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Width < MinBoardSize || config.Width > MaxBoardSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.Width)
	}
	if config.Height < MinBoardSize || config.Height > MaxBoardSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinBoardSize, MaxBoardSize, config.Height)
	}

	if config.Exit.Col < 0 || config.Exit.Col >= config.Width || config.Exit.Row < 0 || config.Exit.Row >= config.Height {
		return fmt.Errorf("config validation: exit (%d, %d) is outside the %dx%d board",
			config.Exit.Col, config.Exit.Row, config.Width, config.Height)
	}

	if len(config.Pieces) == 0 {
		return fmt.Errorf("config validation: at least one piece is required")
	}

	// Board construction enforces ids, bounds, overlap and the single goal
	if _, err := NewBoard(config.Width, config.Height, config.Exit, config.Pieces); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	for _, p := range config.Pieces {
		if !p.Goal {
			continue
		}
		if config.Exit.Col+p.Width > config.Width || config.Exit.Row+p.Height > config.Height {
			return fmt.Errorf("config validation: goal piece %d (%s) does not fit at exit (%d, %d)",
				p.ID, p.Shape(), config.Exit.Col, config.Exit.Row)
		}
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Solved == "" {
		return fmt.Errorf("config validation: messages.solved is required")
	}

	return nil
}

// LoadLevelConfig loads a level configuration from a JSON file
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config LevelConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateLevelConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigByName loads a level by name from the configs directory
func LoadConfigByName(configName string) (*LevelConfig, error) {
	if !strings.HasSuffix(configName, ".json") {
		configName = configName + ".json"
	}

	configDir := "configs"
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		configDir = dir
	}
	configPath := filepath.Join(configDir, configName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file '%s' not found", configName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configName, err)
	}

	var config LevelConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", configName, err)
	}

	if err := ValidateLevelConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", configName, err)
	}

	return &config, nil
}

// DefaultLevelConfig returns the built-in 4x5 level used when no config is given
func DefaultLevelConfig() *LevelConfig {
	return &LevelConfig{
		Name:        "Classic",
		Description: "Slide the large square down onto the exit below the board.",
		Width:       DefaultBoardWidth,
		Height:      DefaultBoardHeight,
		Exit:        Position{Col: 1, Row: 3},
		Pieces: []Piece{
			{ID: 1, Col: 0, Row: 0, Width: 1, Height: 2},
			{ID: 2, Col: 1, Row: 0, Width: 1, Height: 2},
			{ID: 3, Col: 3, Row: 0, Width: 1, Height: 2},
			{ID: 4, Col: 0, Row: 2, Width: 1, Height: 2},
			{ID: 5, Col: 1, Row: 2, Width: 1, Height: 2},
			{ID: 6, Col: 2, Row: 2, Width: 2, Height: 2, Goal: true},
			{ID: 7, Col: 0, Row: 4, Width: 1, Height: 1},
			{ID: 8, Col: 1, Row: 4, Width: 1, Height: 1},
			{ID: 9, Col: 2, Row: 4, Width: 1, Height: 1},
			{ID: 10, Col: 3, Row: 4, Width: 1, Height: 1},
		},
		Messages: LevelMessage{
			Welcome: "Drag the pieces to free the large square.",
			Solved:  "Solved! The large square reached the exit.",
			Blocked: "That piece can't move there.",
		},
	}
}

// NewBoardFromConfig builds a fresh board from the level layout
func NewBoardFromConfig(config *LevelConfig) (*Board, error) {
	if config == nil {
		config = DefaultLevelConfig()
	}
	return NewBoard(config.Width, config.Height, config.Exit, config.Pieces)
}
