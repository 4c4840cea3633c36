package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ava12/packrat/internal/logging"
)

// fileWatcher reports changes of single file. The directory is watched
// since editors often replace files instead of writing them.
type fileWatcher struct {
	name    string
	watcher *fsnotify.Watcher
}

func newWatcher(name string) (*fileWatcher, error) {
	name, e := filepath.Abs(name)
	if e != nil {
		return nil, e
	}

	w, e := fsnotify.NewWatcher()
	if e != nil {
		return nil, e
	}
	if e = w.Add(filepath.Dir(name)); e != nil {
		w.Close()
		return nil, e
	}
	return &fileWatcher{name: name, watcher: w}, nil
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}

// Run calls onChange for every write or creation of watched file until ctx is done.
func (fw *fileWatcher) Run(ctx context.Context, onChange func()) error {
	mask := fsnotify.Create | fsnotify.Write
	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != fw.name || evt.Op&mask == 0 {
				continue
			}
			logger.WithFields(logging.Fields{"event": evt.String()}).Debug("registered file event")
			onChange()

		case e, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			return e
		}
	}
}
