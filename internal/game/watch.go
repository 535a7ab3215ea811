package game

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// FileWatcher polls file modification times and calls onChange for each file
// that changed since the previous poll.
type FileWatcher struct {
	Paths    []string
	Interval time.Duration
	onChange func(string)
	modTimes map[string]time.Time
}

func NewFileWatcher(paths []string, interval time.Duration, onChange func(string)) *FileWatcher {
	return &FileWatcher{
		Paths:    paths,
		Interval: interval,
		onChange: onChange,
		modTimes: make(map[string]time.Time),
	}
}

// WatchLoader invalidates l whenever its game data or any profile file changes,
// then calls onReload if set. Profiles listed in names are watched besides the
// default one.
func WatchLoader(l *Loader, interval time.Duration, onReload func(), names ...string) *FileWatcher {
	p := l.Paths()
	paths := []string{p.GamePath(), p.DefaultProfilePath()}
	for _, n := range names {
		if n != "" && n != DefaultProfile {
			paths = append(paths, p.ProfilePath(n))
		}
	}
	return NewFileWatcher(paths, interval, func(path string) {
		slog.Info("game data changed, reloading", "path", path)
		l.Invalidate()
		if onReload != nil {
			onReload()
		}
	})
}

// Run polls until ctx is done. The first scan only records mtimes.
func (w *FileWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	w.scanAll(true)
	for {
		select {
		case <-ticker.C:
			w.scanAll(false)
		case <-ctx.Done():
			return
		}
	}
}

// scanAll checks mtimes and invokes onChange for files that changed since last scan.
// A file that appears after the first scan counts as a change.
func (w *FileWatcher) scanAll(prime bool) {
	for _, p := range w.Paths {
		fi, err := os.Stat(p)
		if err != nil {
			continue
		}
		mt := fi.ModTime()
		last, ok := w.modTimes[p]
		w.modTimes[p] = mt
		if prime {
			continue
		}
		if !ok || mt.After(last) {
			if w.onChange != nil {
				w.onChange(p)
			}
		}
	}
}
