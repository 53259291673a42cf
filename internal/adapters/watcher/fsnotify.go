// Package watcher provides an optional inbox-directory watcher (A6) that
// calls the same ingestion path as the addFiles command whenever a
// supported file appears.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/offlinerag/ragcore/internal/domain/usecases"
)

// InboxWatcher watches a directory for new or modified documents and
// ingests them through the same Ingestor the CLI and HTTP API use.
type InboxWatcher struct {
	watcher    *fsnotify.Watcher
	ingestor   *usecases.Ingestor
	log        *slog.Logger
	extensions []string
}

// New creates an InboxWatcher. extensions defaults to the document types the
// extractor pipeline understands when empty.
func New(ingestor *usecases.Ingestor, log *slog.Logger, extensions []string) (*InboxWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = []string{".pdf", ".txt", ".md"}
	}
	return &InboxWatcher{watcher: w, ingestor: ingestor, log: log, extensions: extensions}, nil
}

// Watch adds dir to the watch set and blocks, ingesting matching files as
// they are created or written, until ctx is cancelled.
func (w *InboxWatcher) Watch(ctx context.Context, dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.log.Info("watcher: ingesting", slog.String("path", event.Name))
			for _, res := range w.ingestor.IngestFiles(ctx, []string{event.Name}) {
				if res.Err != nil {
					w.log.Error("watcher: ingest failed", slog.String("path", res.Path), slog.Any("error", res.Err))
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *InboxWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
