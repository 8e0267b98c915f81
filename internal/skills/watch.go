package skills

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Cache holds the most recently loaded skill list and keeps it current via
// an optional filesystem watch, so a hot request path doesn't have to walk
// both skill roots on every turn.
type Cache struct {
	loader *Loader
	val    atomic.Pointer[[]Skill]

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewCache(loader *Loader) *Cache {
	c := &Cache{loader: loader}
	loaded := loader.Load()
	c.val.Store(&loaded)
	return c
}

// Get returns the cached skill list.
func (c *Cache) Get() []Skill {
	if v := c.val.Load(); v != nil {
		return *v
	}
	return nil
}

// Watch starts a debounced fsnotify watch over the workspace and builtin
// skills roots, refreshing the cache whenever a SKILL.md (or its directory)
// changes, and runs until ctx is cancelled. A root that doesn't exist yet is
// skipped rather than erroring, since workspace skills/ is optional.
func (c *Cache) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range []string{c.loader.workspaceDir, c.loader.builtinDir} {
		if err := fw.Add(root); err != nil {
			slog.Debug("skills cache: skipping watch root", "path", root, "error", err)
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.watcher = fw
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop(watchCtx, fw)
	return nil
}

// Stop closes the watcher and waits for its goroutine to exit.
func (c *Cache) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	fw := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if fw != nil {
		_ = fw.Close()
	}
	c.wg.Wait()
}

func (c *Cache) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer c.wg.Done()

	const debounce = 250 * time.Millisecond
	var mu sync.Mutex
	var timer *time.Timer
	scheduleReload := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			loaded := c.loader.Load()
			c.val.Store(&loaded)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleReload()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("skills cache: watch error", "error", err)
		}
	}
}
