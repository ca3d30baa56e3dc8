package notify

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOverrides hot-reloads the copy/threshold overrides file whenever it
// changes, with a slow polling pass as safety net for editors that replace
// the inode. A missing file is not an error; built-in defaults stay active.
func WatchOverrides(ctx context.Context, c *Copy, path string) {
	if path == "" {
		return
	}

	reload := func() {
		o, err := LoadOverrides(path)
		if err != nil {
			log.Printf("Notify overrides reload failed: %v", err)
			return
		}
		c.Apply(o)
		log.Printf("Notify overrides reloaded from %s", path)
	}
	reload()

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if addErr := watcher.Add(path); addErr != nil {
			log.Printf("Notify overrides: cannot watch %s (%v), polling only", path, addErr)
			watcher.Close()
			watcher = nil
		}
	} else {
		log.Printf("Notify overrides: fsnotify unavailable (%v), polling only", err)
		watcher = nil
	}

	if watcher != nil {
		go func() {
			defer watcher.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
						// Debounce partial writes.
						time.Sleep(100 * time.Millisecond)
						reload()
					}
				case werr, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Printf("Notify overrides watcher error: %v", werr)
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		var lastMod time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if info.ModTime().After(lastMod) {
					lastMod = info.ModTime()
					reload()
				}
			}
		}
	}()
}
