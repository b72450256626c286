package fixture

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
)

// ErrNoPath is returned by Watch for a source that was not opened from a file.
var ErrNoPath = errors.New("inventory has no backing file")

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 150 * time.Millisecond

// Watch reloads the inventory whenever its file changes. A value is sent on
// the returned channel after every successful reload; the channel is closed
// when ctx is done. Failed reloads are logged and the old inventory is kept.
func (s *Source) Watch(ctx context.Context, log logr.Logger, debounce time.Duration) (<-chan struct{}, error) {
	if s.path == "" {
		return nil, ErrNoPath
	}
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory so editors that replace the file are noticed.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	changed := make(chan struct{}, 1)
	go func() {
		defer close(changed)
		defer w.Close()

		timer := time.NewTimer(debounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				timer.Reset(debounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error(err, "inventory watch failed", "path", abs)
			case <-timer.C:
				if err := s.Reload(); err != nil {
					log.Error(err, "inventory reload failed", "path", abs)
					continue
				}
				log.V(1).Info("inventory reloaded", "path", abs)
				select {
				case changed <- struct{}{}:
				default:
				}
			}
		}
	}()
	return changed, nil
}
