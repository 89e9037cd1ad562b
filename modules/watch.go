package modules

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch loads the manifests in dir and then reloads them as they
// change until the context is done.  A removed manifest's module is
// unloaded.
func (l *Loader) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err = watcher.Add(dir); err != nil {
		return fmt.Errorf("error adding directory to watcher: %w", err)
	}

	if _, err = l.LoadDir(ctx, dir); err != nil {
		l.Logger.Warn("initial load", zap.String("dir", dir), zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			l.handleFileEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.Logger.Warn("watcher", zap.Error(err))
		}
	}
}

func (l *Loader) handleFileEvent(ctx context.Context, event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, Suffix) {
		return
	}
	filename := filepath.Clean(event.Name)

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		// Several writes often arrive together.
		time.Sleep(l.Settle)
		if _, err := l.LoadFile(ctx, filename); err != nil {
			l.Logger.Warn("reload", zap.String("filename", filename), zap.Error(err))
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		l.Lock()
		name, have := l.files[filename]
		if have {
			l.unload(name)
		}
		l.Unlock()
	}
}
