// Package watcher tails an engine's compute message file. Engines
// append progress and error lines to a log as the simulation advances;
// the tailer delivers each appended chunk to a callback so the adapter
// can parse progress out of it.
package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Tailer watches a file and delivers newly appended content
type Tailer struct {
	path     string
	onData   func(chunk string)
	debounce time.Duration
	offset   int64
}

// New creates a tailer for the given file. The file does not need to
// exist yet; engines typically create their message log after startup.
func New(path string, onData func(chunk string)) *Tailer {
	return &Tailer{
		path:     path,
		onData:   onData,
		debounce: 200 * time.Millisecond,
	}
}

// WithDebounce sets the minimum delay between reads
func (t *Tailer) WithDebounce(d time.Duration) *Tailer {
	t.debounce = d
	return t
}

// Tail watches the file until the context is cancelled. It blocks.
// A final read happens on cancellation so trailing output is not lost.
func (t *Tailer) Tail(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: the file may not exist yet,
	// and engines sometimes replace it wholesale.
	dir := filepath.Dir(t.path)
	filename := filepath.Base(t.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	// pick up whatever is already there
	t.drain()

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// replaced file starts over
				t.offset = 0
			}
			// Debounce rapid appends
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(t.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			t.drain()

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// transient watch errors are not fatal to the run

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			t.drain()
			return ctx.Err()
		}
	}
}

// drain reads from the last offset to EOF and delivers the chunk
func (t *Tailer) drain() {
	f, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() < t.offset {
		// file was truncated
		t.offset = 0
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return
	}
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return
	}
	t.offset += int64(len(data))
	t.onData(string(data))
}
