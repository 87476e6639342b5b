package internal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of filesystem event
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventWrite:
		return "write"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// WatchEvent is a change to a file the migrator would pick up
type WatchEvent struct {
	Type EventType
	Path string
	Kind Kind
}

// Watcher wraps fsnotify on the input directory. Hidden files are ignored,
// which also hides the scratch files of tools still writing into it.
type Watcher struct {
	watcher   *fsnotify.Watcher
	recursive bool
	events    chan *WatchEvent
	errors    chan error
	done      chan bool
}

func NewWatcher(root string, recursive bool) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:   fsWatcher,
		recursive: recursive,
		events:    make(chan *WatchEvent, 100),
		errors:    make(chan error, 10),
		done:      make(chan bool, 1),
	}

	if err := w.add(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.processEvents()

	return w, nil
}

// add watches root, and its subdirectories when recursive
func (w *Watcher) add(root string) error {
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if isHidden(event.Name) {
				continue
			}

			watchEvent := &WatchEvent{
				Path: event.Name,
				Kind: Classify(event.Name).Kind,
			}

			switch {
			case event.Has(fsnotify.Create):
				watchEvent.Type = EventCreate
				if w.recursive {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := w.add(event.Name); err != nil {
							w.sendError(err)
						}
						continue
					}
				}
			case event.Has(fsnotify.Write):
				watchEvent.Type = EventWrite
			case event.Has(fsnotify.Remove):
				watchEvent.Type = EventDelete
			case event.Has(fsnotify.Rename):
				watchEvent.Type = EventRename
			default:
				continue // chmod
			}

			select {
			case w.events <- watchEvent:
			default:
				// Event channel is full, drop event
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendError(err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// Error channel is full, drop error
	}
}

// Events returns the channel of filtered watch events
func (w *Watcher) Events() <-chan *WatchEvent {
	return w.events
}

// Errors returns the channel of watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and cleans up resources
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
