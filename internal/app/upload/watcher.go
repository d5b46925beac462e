package upload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/tunedeck/internal/app/filter"
)

// DefaultSettleDelay is how long a file must stay quiet before it is imported.
const DefaultSettleDelay = time.Second

// Watcher imports files dropped into a directory.
//
// fsnotify reports several write events while a file is being copied and has no
// close-after-write event, so each path is imported once it has been quiet for
// the settle delay. A path is imported at most once until it is removed or
// renamed away.
type Watcher struct {
	dir      string
	importer *Importer
	delay    time.Duration
	fs       *fsnotify.Watcher

	mu       sync.Mutex
	pending  map[string]*time.Timer
	imported map[string]struct{}
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher on dir. A zero delay uses DefaultSettleDelay.
func NewWatcher(dir string, importer *Importer, delay time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat watch directory")
	}
	if !info.IsDir() {
		return nil, errors.Newf("watch path is not a directory: %s", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}

	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		dir:      dir,
		importer: importer,
		delay:    delay,
		fs:       fsw,
		pending:  make(map[string]*time.Timer),
		imported: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start starts processing file system events.
func (w *Watcher) Start() {
	zlog.Info().Msgf("watching for uploads: dir=%s settle=%s", w.dir, w.delay)
	w.wg.Add(1)
	go w.loop()
}

// Close stops the watcher. Files still settling are not imported.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.cancel()
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			zlog.Error().Msgf("watch error: dir=%s error=%v", w.dir, err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if isHidden(filepath.Base(event.Name)) {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.schedule(event.Name)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(event.Name)
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if _, ok := w.imported[path]; ok {
		zlog.Debug().Msgf("watch: already imported, ignoring change: path=%s", path)
		return
	}

	if t, ok := w.pending[path]; ok {
		t.Reset(w.delay)
		return
	}
	w.pending[path] = time.AfterFunc(w.delay, func() { w.settled(path) })
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.imported, path)
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) settled(path string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return
	}

	report, err := w.importer.Import(w.ctx, []string{path}, filter.OriginWatch)
	if err != nil {
		zlog.Error().Msgf("watch import failed: path=%s error=%v", path, err)
		return
	}
	if len(report.Accepted) > 0 {
		w.mu.Lock()
		w.imported[path] = struct{}{}
		w.mu.Unlock()
	}
}
