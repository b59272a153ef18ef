// Package watch re-runs a callback when any of a fixed set of files changes.
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// FileWatcher monitors a set of files and triggers a callback with the
// changed paths once events stop arriving for the debounce period.
//
// The parent directories are watched rather than the files themselves so
// that editors which save by renaming a temporary file are still seen.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	files     map[string]struct{}
	dirs      []string
	onChange  func([]string) error
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithLogger sets the logger used for watch events and callback failures.
func WithLogger(logger *zap.Logger) Option {
	return func(fw *FileWatcher) {
		if logger != nil {
			fw.logger = logger
		}
	}
}

// WithDebounce sets the quiet period before the callback runs.
func WithDebounce(d time.Duration) Option {
	return func(fw *FileWatcher) {
		fw.debouncer.duration = d
	}
}

// NewFileWatcher creates a watcher for files. Paths are cleaned and made
// absolute; at least one file is required.
func NewFileWatcher(files []string, onChange func([]string) error, opts ...Option) (*FileWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	fw := &FileWatcher{
		debouncer: NewDebouncer(DefaultDebounce),
		files:     make(map[string]struct{}, len(files)),
		onChange:  onChange,
		logger:    zap.NewNop(),
		stopChan:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(fw)
	}

	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		fw.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			fw.dirs = append(fw.dirs, dir)
		}
	}
	sort.Strings(fw.dirs)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.watcher = watcher

	fw.debouncer.SetCallback(func(changed []string) {
		if err := fw.onChange(changed); err != nil {
			fw.logger.Warn("change handler failed", zap.Strings("files", changed), zap.Error(err))
		}
	})

	return fw, nil
}

// Files returns the watched paths, sorted.
func (fw *FileWatcher) Files() []string {
	out := make([]string, 0, len(fw.files))
	for f := range fw.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Start begins watching. Events are handled on a background goroutine
// until Stop is called.
func (fw *FileWatcher) Start() error {
	for _, dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		fw.logger.Debug("watching directory", zap.String("dir", dir))
	}

	fw.wg.Add(1)
	go fw.watch()

	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.stopChan)
		fw.wg.Wait()
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watch() {
	defer fw.wg.Done()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.tracks(event.Name) || !relevant(event.Op) {
				continue
			}
			fw.logger.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			fw.debouncer.Add(filepath.Clean(event.Name))

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watch error", zap.Error(err))

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) tracks(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := fw.files[abs]
	return ok
}

func relevant(op fsnotify.Op) bool {
	return op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	running  sync.Mutex
	callback func([]string)
	stopped  bool
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
	}
}

// Add records a file and restarts the delay. Adds after Stop are dropped.
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush hands the accumulated files, sorted, to the callback. Callbacks run
// one at a time; a flush that fires during a callback waits for it and then
// takes every file added meanwhile. The callback runs without the state lock
// held so it may call Add.
func (d *Debouncer) flush() {
	d.running.Lock()
	defer d.running.Unlock()

	d.mutex.Lock()
	if len(d.files) == 0 || d.stopped {
		d.mutex.Unlock()
		return
	}

	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	sort.Strings(files)
	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending flush.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.stopped = true
}
