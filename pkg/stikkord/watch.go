package stikkord

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// watchDebounce coalesces event bursts into one callback; watchSettle is how
// long the folder must stay quiet after a pass before new events count again.
var (
	watchDebounce = 500 * time.Millisecond
	watchSettle   = 250 * time.Millisecond
)

// Watch runs fn whenever files are created, written, renamed, or removed
// under folder, and blocks until ctx is done. Subdirectories existing at
// start are registered too. Bursts of events coalesce into a single fn call.
// Tagging rewrites files in place, so the events a pass generates under the
// watched folder are discarded once fn returns; changes landing while fn
// runs surface on the next external event.
func Watch(ctx context.Context, folder string, fn func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("new watcher: %w", err)
	}
	defer w.Close()

	dirs := []string{folder}
	err = godirwalk.Walk(folder, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if strings.HasPrefix(filepath.Base(path), ".") && path != folder {
				return godirwalk.SkipThis
			}
			if de.IsDir() {
				dirs = append(dirs, path)
			}
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return fmt.Errorf("walk: %w", err)
	}

	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	klog.Infof("watching %d dirs ...", len(dirs))
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				if !debounce.Stop() && pending {
					<-debounce.C
				}
				debounce.Reset(watchDebounce)
				pending = true
			}
		case <-debounce.C:
			pending = false
			fn()
			if err := settle(ctx, w); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}

// settle drains the watcher until the folder stays quiet, throwing away the
// events a pass generated by rewriting files in place, so a pass never
// schedules itself again.
func settle(ctx context.Context, w *fsnotify.Watcher) error {
	quiet := time.NewTimer(watchSettle)
	defer quiet.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(2).Infof("discarding event: %v", event)
			if !quiet.Stop() {
				<-quiet.C
			}
			quiet.Reset(watchSettle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		case <-quiet.C:
			return nil
		}
	}
}
