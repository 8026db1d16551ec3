// Package statefile provides a passive activity source backed by a plain
// text file. The file holds one raw classification such as
// USER_ACTIVITY_ASLEEP and is re-read whenever it changes on disk.
package statefile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/wearmon/internal/logger"
	"github.com/j-veylop/wearmon/internal/services/activity"
)

const debounceInterval = 100 * time.Millisecond

// ErrAlreadyListening is returned when a second listener is set.
var ErrAlreadyListening = errors.New("state file listener already set")

// Source watches a state file and pushes its content to a listener.
type Source struct {
	mu            sync.Mutex
	path          string
	watcher       *fsnotify.Watcher
	onState       func(raw string)
	stopChan      chan struct{}
	debounceTimer *time.Timer
	last          string
}

// New creates a source for path. The file does not need to exist yet.
func New(path string) *Source {
	return &Source{path: path}
}

// Path returns the watched file.
func (s *Source) Path() string {
	return s.path
}

// SetListener starts watching the file. The current content, if any, is
// pushed immediately.
func (s *Source) SetListener(_ context.Context, _ activity.PassiveConfig, onState func(raw string)) error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return ErrAlreadyListening
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// Watch the directory so that atomic renames are seen.
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.watcher = watcher
	s.onState = onState
	s.stopChan = make(chan struct{})
	s.last = ""
	stop := s.stopChan
	s.mu.Unlock()

	go s.watchLoop(watcher, stop)
	s.handleFileChange()
	return nil
}

// ClearListener stops watching. Clearing an unset listener is not an error.
func (s *Source) ClearListener(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		return nil
	}

	close(s.stopChan)
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}

	err := s.watcher.Close()
	s.watcher = nil
	s.onState = nil
	return err
}

// Write replaces the file content with raw using a temp file and rename.
func (s *Source) Write(raw string) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(raw+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (s *Source) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	name := filepath.Base(s.path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			s.mu.Lock()
			if s.watcher == watcher {
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
			}
			s.mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("state file watcher error", "path", s.path, "error", err)

		case <-stop:
			return
		}
	}
}

// handleFileChange reads the file and pushes a changed value.
func (s *Source) handleFileChange() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read state file", "path", s.path, "error", err)
		}
		return
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return
	}

	s.mu.Lock()
	fn := s.onState
	if fn == nil || raw == s.last {
		s.mu.Unlock()
		return
	}
	s.last = raw
	s.mu.Unlock()

	fn(raw)
}
