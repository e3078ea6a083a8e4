package override

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/sky"
)

// State is the single owner of the override. Consumers read it through Get
// and are told about changes through Subscribe; only State writes the Store.
type State struct {
	mu      sync.RWMutex
	current Override
	store   Store
	logger  *logging.Logger
	subs    []func(Override)
}

// NewState loads the stored override. A load failure is logged and the
// state starts automatic.
func NewState(store Store, logger *logging.Logger) *State {
	if logger == nil {
		logger = logging.Discard()
	}
	o, err := store.Load()
	if err != nil {
		logger.Warn("Loading overrides failed, using automatic: %v", err)
		o = Default()
	}
	return &State{current: o, store: store, logger: logger}
}

// Get returns the current override.
func (s *State) Get() Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers fn to run after every change.
func (s *State) Subscribe(fn func(Override)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// SetMode pins the mode. An empty mode returns to automatic.
func (s *State) SetMode(m sky.Mode) error {
	return s.update(func(o *Override) { o.Mode = m })
}

// SetWeather pins the weather. An empty condition returns to automatic.
func (s *State) SetWeather(c sky.Condition) error {
	return s.update(func(o *Override) { o.Weather = c })
}

// SetMusicEnabled toggles background music.
func (s *State) SetMusicEnabled(enabled bool) error {
	return s.update(func(o *Override) { o.MusicEnabled = enabled })
}

// SetVolume sets the music volume, clamped to [0,1].
func (s *State) SetVolume(v float64) error {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return s.update(func(o *Override) { o.Volume = v })
}

// Clear returns mode and weather to automatic, keeping music preferences.
func (s *State) Clear() error {
	return s.update(func(o *Override) {
		o.Mode = ""
		o.Weather = ""
	})
}

func (s *State) update(fn func(*Override)) error {
	s.mu.Lock()
	next := s.current
	fn(&next)
	if next == s.current {
		s.mu.Unlock()
		return nil
	}
	if err := s.store.Save(next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save override: %w", err)
	}
	s.current = next
	subs := append([]func(Override){}, s.subs...)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return nil
}

// reload replaces the current override with the stored one and notifies
// subscribers when it differs.
func (s *State) reload() {
	o, err := s.store.Load()
	if err != nil {
		s.logger.Debug("Reloading overrides failed: %v", err)
		return
	}

	s.mu.Lock()
	if o == s.current {
		s.mu.Unlock()
		return
	}
	s.current = o
	subs := append([]func(Override){}, s.subs...)
	s.mu.Unlock()

	s.logger.Debug("Overrides changed on disk: mode=%q weather=%q", o.Mode, o.Weather)
	for _, fn := range subs {
		fn(o)
	}
}

// Watch reloads the override whenever the backing file changes, until ctx
// is done. It returns immediately for stores that are not file-backed.
func (s *State) Watch(ctx context.Context) error {
	fs, ok := s.store.(*FileStore)
	if !ok {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: Save replaces the file by rename.
	dir := filepath.Dir(fs.Path())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(fs.Path())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				s.reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Debug("Override watcher error: %v", err)
		}
	}
}
