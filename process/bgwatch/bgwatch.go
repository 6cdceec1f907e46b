// Package bgwatch keeps a background reference set in sync with a directory.
package bgwatch

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"capsolve/pkg/captcha"
)

// Watcher reloads Refs from Dir whenever image files there change. Bursts of
// events (a large file being copied in) are folded into one reload once the
// directory has been quiet for Debounce.
type Watcher struct {
	Dir      string
	Refs     *captcha.References
	Debounce time.Duration
	// OnReload, if set, is called after every reload with the new set size.
	OnReload func(n int)
}

// New returns a watcher with the default debounce.
func New(dir string, refs *captcha.References) *Watcher {
	return &Watcher{Dir: dir, Refs: refs, Debounce: 300 * time.Millisecond}
}

// Run loads the directory once and then watches it until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return err
	}
	w.reload()
	log.Printf("watching backgrounds in %s (debounced)", w.Dir)

	tick := w.Debounce / 2
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !captcha.IsSupportedImage(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = time.Now()
			}
		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) > w.Debounce {
				pending = time.Time{}
				w.reload()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	n, _ := w.Refs.LoadDir(w.Dir)
	if w.OnReload != nil {
		w.OnReload(n)
	}
}
