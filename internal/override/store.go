// Package override persists user-pinned sky settings and shares them with
// every consumer through a single State owner.
package override

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-sky/internal/sky"
)

// Storage keys. An absent key means "automatic".
const (
	KeyMode    = "theme:manualMode"
	KeyWeather = "theme:manualWeather"
	KeyMusic   = "theme:music"
	KeyVolume  = "theme:volume"
)

// DefaultVolume is the music volume used when none is stored.
const DefaultVolume = 0.3

// ErrInvalidValue is returned when a value cannot be stored under a key.
var ErrInvalidValue = errors.New("invalid override value")

// Override is the user-pinned state. Empty Mode or Weather means automatic.
type Override struct {
	Mode         sky.Mode
	Weather      sky.Condition
	MusicEnabled bool
	Volume       float64
}

// Default returns the fully automatic override.
func Default() Override {
	return Override{Volume: DefaultVolume}
}

// Store loads and saves overrides.
type Store interface {
	Load() (Override, error)
	Save(Override) error
}

// FileStore keeps overrides as a flat YAML map of string keys.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the per-user override file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "ls-sky", "overrides.yaml"), nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the override file. A missing file yields Default().
// Unknown or malformed values are ignored, matching "absent means automatic".
func (s *FileStore) Load() (Override, error) {
	o := Default()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return o, nil
	}
	if err != nil {
		return o, fmt.Errorf("read overrides: %w", err)
	}

	kv := map[string]string{}
	if err := yaml.Unmarshal(raw, &kv); err != nil {
		return o, fmt.Errorf("parse overrides: %w", err)
	}

	if m, ok := sky.ParseMode(kv[KeyMode]); ok {
		o.Mode = m
	}
	if c, ok := sky.ParseCondition(kv[KeyWeather]); ok {
		o.Weather = c
	}
	o.MusicEnabled = kv[KeyMusic] == "true"
	if v, err := strconv.ParseFloat(kv[KeyVolume], 64); err == nil && v >= 0 && v <= 1 {
		o.Volume = v
	}
	return o, nil
}

// Save writes the override file, omitting automatic keys.
func (s *FileStore) Save(o Override) error {
	if o.Volume < 0 || o.Volume > 1 {
		return fmt.Errorf("volume %.2f: %w", o.Volume, ErrInvalidValue)
	}

	kv := map[string]string{
		KeyMusic:  strconv.FormatBool(o.MusicEnabled),
		KeyVolume: strconv.FormatFloat(o.Volume, 'f', 2, 64),
	}
	if o.Mode != "" {
		kv[KeyMode] = string(o.Mode)
	}
	if o.Weather != "" {
		kv[KeyWeather] = string(o.Weather)
	}

	raw, err := yaml.Marshal(kv)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}

	// Write then rename so watchers never observe a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace overrides: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store, used when no file is configured.
type MemoryStore struct {
	o Override
}

// NewMemoryStore returns a store that starts at Default().
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{o: Default()}
}

// Load implements Store.
func (s *MemoryStore) Load() (Override, error) { return s.o, nil }

// Save implements Store.
func (s *MemoryStore) Save(o Override) error {
	s.o = o
	return nil
}
