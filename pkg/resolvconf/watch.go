package resolvconf

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/cuemby/netresolved/pkg/dnserr"
	"github.com/cuemby/netresolved/pkg/log"
)

// Watcher notifies on every write or atomic-replace of a single resolver
// file. Editors and container runtimes alike tend to replace the file
// rather than write it in place, which is why the parent directory is
// watched instead of the file itself -- an in-place watch does not survive
// the file's inode being swapped out from under it.
type Watcher struct {
	fsw      *fsnotify.Watcher
	baseName string
	Events   chan struct{}
	done     chan struct{}
}

// Watch starts watching path's parent directory for changes to path's
// base name. Call Close when done.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, dnserr.WrapIO("creating resolver file watcher", err)
	}

	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, dnserr.WrapIO("watching resolver file directory "+dir, err)
	}

	w := &Watcher{
		fsw:      fsw,
		baseName: filepath.Base(path),
		Events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.Events)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.baseName {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.Events <- struct{}{}:
			default:
				// a reload is already pending; coalesce
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Logger.Warn().Str("component", "resolvconf").Err(err).Msg("watcher error")
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and releases its underlying file descriptor.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
