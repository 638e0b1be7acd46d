package configstore

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/coordkit/errors"
	"github.com/kbukum/coordkit/logger"
)

// WatchFunc is called with the reloaded document after a watched
// configuration changes on disk.
type WatchFunc func(name string, data map[string]any)

// dirWatcher multiplexes one fsnotify watcher on the store directory
// across any number of watched configuration names.
type dirWatcher struct {
	fsw  *fsnotify.Watcher
	log  *logger.Logger
	done chan struct{}

	mu        sync.Mutex
	callbacks map[string][]WatchFunc
}

// Watch registers fn to run whenever the named configuration is written
// on disk. The first call starts the shared directory watcher. The cached
// copy is invalidated before fn receives the reloaded document.
func (s *Store) Watch(name string, fn WatchFunc) error {
	if err := validateName(name); err != nil {
		return err
	}

	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watcher == nil {
		w, err := newDirWatcher(s)
		if err != nil {
			return err
		}
		s.watcher = w
	}
	s.watcher.add(name, fn)
	return nil
}

// Close stops the directory watcher, if one was started. The store
// remains usable for everything except change notification.
func (s *Store) Close() error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watcher == nil {
		return nil
	}
	err := s.watcher.stop()
	s.watcher = nil
	return err
}

func newDirWatcher(s *Store) (*dirWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.IO("start_watcher", err)
	}
	if err := fsw.Add(s.dir); err != nil {
		fsw.Close() //nolint:errcheck
		return nil, errors.IO("watch_config_dir", err)
	}

	w := &dirWatcher{
		fsw:       fsw,
		log:       s.log,
		done:      make(chan struct{}),
		callbacks: make(map[string][]WatchFunc),
	}
	go w.run(s)
	return w, nil
}

func (w *dirWatcher) add(name string, fn WatchFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks[name] = append(w.callbacks[name], fn)
}

func (w *dirWatcher) stop() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *dirWatcher) run(s *Store) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.dispatch(s, event.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", map[string]any{"error": err.Error()})
		}
	}
}

func (w *dirWatcher) dispatch(s *Store, path string) {
	base := filepath.Base(path)
	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	if !isConfigExt(ext) {
		return
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))

	w.mu.Lock()
	fns := append([]WatchFunc(nil), w.callbacks[name]...)
	w.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	s.cache.invalidate(name)
	doc, err := s.Load(context.Background(), name)
	if err != nil {
		w.log.Warn("config reload failed", map[string]any{"config": name, "error": err.Error()})
		return
	}
	for _, fn := range fns {
		fn(name, doc)
	}
}
