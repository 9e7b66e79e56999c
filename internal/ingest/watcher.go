package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/syncora/constants"
)

// WatchConfig controls which coursework files a Watcher reports.
type WatchConfig struct {
	Roots       []string // watched recursively
	InitialScan bool     // emit files already present under Roots
	Debounce    time.Duration
}

// Watcher reports paths of supported documents (pdf, png, jpeg) as they
// are created or rewritten under the configured roots.
type Watcher struct {
	cfg    WatchConfig
	logger *slog.Logger
	fsw    *fsnotify.Watcher

	pending map[string]struct{}
	timer   *time.Timer
	fire    chan struct{}

	files chan string
}

// NewWatcher registers every directory under cfg.Roots.
func NewWatcher(cfg WatchConfig, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, errors.New("ingest: no roots to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		cfg:     cfg,
		logger:  logger,
		fsw:     fsw,
		pending: map[string]struct{}{},
		fire:    make(chan struct{}, 1),
		files:   make(chan string, 256),
	}
	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return fsw.Add(path)
			}
			if cfg.InitialScan && Supported(path) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	for _, p := range initial {
		w.pending[p] = struct{}{}
	}
	logger.Info("watch.start", "roots", cfg.Roots, "initial", len(initial))
	return w, nil
}

// Files is closed once Run returns.
func (w *Watcher) Files() <-chan string { return w.files }

// Run forwards filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.files)
	defer w.fsw.Close()

	w.flush(ctx)
	for {
		select {
		case <-ctx.Done():
			if w.timer != nil {
				w.timer.Stop()
			}
			return nil
		case <-w.fire:
			w.flush(ctx)
		case e, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, e)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch.error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
			if err := w.fsw.Add(e.Name); err != nil {
				w.logger.Warn("watch.add_failed", "path", e.Name, "error", err)
			}
		}
	}
	if !Supported(e.Name) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
		return
	}
	w.pending[e.Name] = struct{}{}

	if w.cfg.Debounce <= 0 {
		w.flush(ctx)
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) flush(ctx context.Context) {
	for p := range w.pending {
		delete(w.pending, p)
		select {
		case w.files <- p:
		case <-ctx.Done():
			return
		default:
			w.logger.Warn("watch.dropped", "path", p)
		}
	}
}

// Supported reports whether the path has an extension the extractor accepts.
func Supported(path string) bool {
	_, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
