package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/klotski/game/engine"
	"github.com/wricardo/klotski/game/service"
)

const sessionFileExt = ".json"

// FilePersistence stores each session as <id>.json in one directory
type FilePersistence struct {
	dir     string
	configs service.ConfigManager
}

// NewFilePersistence creates the directory if needed
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{dir: sessionsDir, configs: configManager}, nil
}

func (fp *FilePersistence) path(id string) string {
	return filepath.Join(fp.dir, id+sessionFileExt)
}

// Save writes the session, its level and its full game state
func (fp *FilePersistence) Save(sess *service.Session) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}

	record := PersistedSessionData{
		ID:             sess.ID,
		ConfigName:     fp.levelID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Level:          sess.Config,
		GameState:      sess.Engine.GetState(),
	}

	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	if err := os.WriteFile(fp.path(sess.ID), raw, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load rebuilds a session, re-applying its stored viewport
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	raw, err := os.ReadFile(fp.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var record PersistedSessionData
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	if record.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", id)
	}

	level, err := fp.resolveLevel(&record)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := eng.SetState(record.GameState); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}
	if layout := record.GameState.Layout; layout != nil {
		if _, err := eng.Resize(layout.Viewport); err != nil {
			return nil, fmt.Errorf("failed to restore layout: %w", err)
		}
	}

	return &service.Session{
		ID:             record.ID,
		Engine:         eng,
		Config:         level,
		CreatedAt:      record.CreatedAt,
		LastAccessedAt: record.LastAccessedAt,
	}, nil
}

// Delete removes the session file
func (fp *FilePersistence) Delete(id string) error {
	err := os.Remove(fp.path(id))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrSessionNotFound
	case err != nil:
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns the IDs of every stored session
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if id, ok := strings.CutSuffix(entry.Name(), sessionFileExt); ok && !entry.IsDir() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Exists reports whether a session file is present
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.path(id))
	return err == nil
}

// levelID maps a level display name to its config ID. Unknown names are
// stored as given.
func (fp *FilePersistence) levelID(name string) string {
	infos, err := fp.configs.ListConfigs()
	if err != nil {
		return name
	}
	for _, info := range infos {
		if info.Name == name {
			return info.ConfigID
		}
	}
	return name
}

// resolveLevel prefers the level from the config directory and falls back to
// the copy stored with the session
func (fp *FilePersistence) resolveLevel(record *PersistedSessionData) (*engine.LevelConfig, error) {
	level, err := fp.configs.LoadConfig(record.ConfigName)
	if err == nil {
		return level, nil
	}
	if record.Level != nil {
		if verr := engine.ValidateLevelConfig(record.Level); verr != nil {
			return nil, fmt.Errorf("stored level for session %s is invalid: %w", record.ID, verr)
		}
		return record.Level, nil
	}
	if def := fp.configs.GetDefault(); def != nil && def.Name == record.ConfigName {
		return def, nil
	}
	return nil, fmt.Errorf("failed to load config '%s': %w", record.ConfigName, err)
}
