package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/igor-ruivo/metin2-events/internal/discord"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const (
	BackendFile = "file"
	BackendBolt = "bolt"

	DefaultDataDir = "~/.local/share/metin2-events"
)

// ErrNotFound is returned by Load when a period was never saved
var ErrNotFound = errors.New("period not stored")

// Store saves and loads the embeds computed for a period
type Store interface {
	Save(p schedule.Period, embeds []discord.Embed) error
	Load(p schedule.Period) ([]discord.Embed, error)
}

// Open returns the store for the named backend rooted at dataDir
func Open(backend, dataDir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendFile:
		return New(dataDir)
	case BackendBolt:
		return NewBolt(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// FileStore keeps each period in <dataDir>/<period>.json
type FileStore struct {
	dataDir string
}

// New creates a FileStore, creating dataDir if needed
func New(dataDir string) (*FileStore, error) {
	dir, err := prepareDir(dataDir)
	if err != nil {
		return nil, err
	}
	return &FileStore{dataDir: dir}, nil
}

// Dir returns the resolved data directory
func (s *FileStore) Dir() string {
	return s.dataDir
}

func (s *FileStore) path(p schedule.Period) string {
	return filepath.Join(s.dataDir, string(p)+".json")
}

// Save writes the embeds for a period
func (s *FileStore) Save(p schedule.Period, embeds []discord.Embed) error {
	data, err := json.MarshalIndent(embeds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", p, err)
	}

	if err := os.WriteFile(s.path(p), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

// Load reads the embeds for a period
func (s *FileStore) Load(p schedule.Period) ([]discord.Embed, error) {
	data, err := os.ReadFile(s.path(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return decode(p, data)
}

func decode(p schedule.Period, data []byte) ([]discord.Embed, error) {
	var embeds []discord.Embed
	if err := json.Unmarshal(data, &embeds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}
	return embeds, nil
}

// prepareDir expands ~ and creates the directory
func prepareDir(dataDir string) (string, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dataDir, nil
}
