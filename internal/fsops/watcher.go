package fsops

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tabfm/tabfm/internal/events"
)

// Watcher observes one directory at a time (the active tab's) and emits
// the directory path on Changed when its contents are touched. Events are
// debounced so a burst of filesystem activity yields a single refresh.
type Watcher struct {
	fsw      *fsnotify.Watcher
	logger   *events.Logger
	debounce time.Duration

	mu      sync.Mutex
	current string

	changed chan string
	done    chan struct{}
	once    sync.Once
}

// NewWatcher creates a directory watcher.
func NewWatcher(debounce time.Duration, logger *events.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	w := &Watcher{
		fsw:      fsw,
		logger:   logger.WithField("component", "fs_watcher"),
		debounce: debounce,
		changed:  make(chan string, 8),
		done:     make(chan struct{}),
	}

	go w.run()
	return w, nil
}

// Changed delivers directory paths whose contents changed.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

// SetPath switches the watched directory, dropping the previous watch.
func (w *Watcher) SetPath(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == path {
		return nil
	}
	if w.current != "" {
		// Removal of a vanished directory fails harmlessly.
		_ = w.fsw.Remove(w.current)
	}

	if err := w.fsw.Add(path); err != nil {
		w.current = ""
		return err
	}
	w.current = path

	w.logger.WithField("path", path).Debug("Watching directory")
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.once.Do(func() { close(w.done) })
	return w.fsw.Close()
}

func (w *Watcher) run() {
	var (
		pending string
		timer   *time.Timer
		fire    <-chan time.Time
	)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}

			dir := filepath.Dir(event.Name)
			w.mu.Lock()
			watched := w.current
			w.mu.Unlock()
			if dir != watched && event.Name != watched {
				continue
			}

			pending = watched
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			if pending != "" {
				select {
				case w.changed <- pending:
				default:
					// A refresh is already queued; one is enough.
				}
				pending = ""
			}
			fire = nil

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}
