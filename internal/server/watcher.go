package server

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher calls onChange, debounced, when a file is written or replaced.
type Watcher struct {
	watcher  *fsnotify.Watcher
	file     string
	logger   zerolog.Logger
	onChange func()
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	stopCh chan struct{}
	once   sync.Once
}

// NewWatcher watches path. The parent directory is watched so editors
// that replace the file by rename are seen.
func NewWatcher(path string, logger zerolog.Logger, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fsw.Close()
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		file:     abs,
		logger:   logger,
		onChange: onChange,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.file {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str("file", filepath.Base(event.Name)).
					Str("op", event.Op.String()).
					Msg("Manifest change detected")
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("File watcher error")

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
