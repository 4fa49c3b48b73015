package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Ingestor is the slice of the vector store the watcher consumes.
type Ingestor interface {
	IngestFile(ctx context.Context, path, fileID string) (int, error)
	DeleteFile(ctx context.Context, fileID string) (int, error)
}

// DirectoryWatcher keeps the default collection in sync with a documents
// directory: files dropped there are ingested, edits re-ingested and
// removals deleted from the index. Uploads that go through the API are
// indexed by the files controller instead; this covers documents placed on
// disk directly.
type DirectoryWatcher struct {
	store  Ingestor
	logger *zap.Logger

	mu     sync.Mutex
	hashes map[string]string // path -> content hash of the indexed version
}

// NewDirectoryWatcher builds a watcher that feeds the given store.
func NewDirectoryWatcher(store Ingestor, logger *zap.Logger) *DirectoryWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryWatcher{
		store:  store,
		logger: logger,
		hashes: make(map[string]string),
	}
}

// pathFileID derives the stable file identifier for a watched path. All
// chunks of one path share it, so a later delete removes them as a set.
func pathFileID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return "watch-" + hex.EncodeToString(sum[:8])
}

// Sync walks dirPath once and ingests every supported file.
func (w *DirectoryWatcher) Sync(ctx context.Context, dirPath string) error {
	return filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isSupportedFile(path) {
			return nil
		}
		w.reindex(ctx, path)
		return nil
	})
}

// Watch blocks until ctx is cancelled, re-indexing files as they change in
// dirPath.
func (w *DirectoryWatcher) Watch(ctx context.Context, dirPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dirPath); err != nil {
		return err
	}
	w.logger.Info("watching directory", zap.String("dir", dirPath))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSupportedFile(event.Name) {
				continue
			}
			// Editors often save via a temp file plus rename, so Create and
			// Write are handled identically.
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				w.reindex(ctx, event.Name)
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				w.remove(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-ctx.Done():
			w.logger.Info("watcher shutting down")
			return ctx.Err()
		}
	}
}

func (w *DirectoryWatcher) reindex(ctx context.Context, path string) {
	hash, err := fileHash(path)
	if err != nil {
		w.logger.Warn("could not hash file", zap.String("path", path), zap.Error(err))
		return
	}

	w.mu.Lock()
	unchanged := w.hashes[path] == hash
	w.mu.Unlock()
	if unchanged {
		return
	}

	fileID := pathFileID(path)
	if _, err := w.store.DeleteFile(ctx, fileID); err != nil {
		w.logger.Error("failed to delete stale chunks", zap.String("path", path), zap.Error(err))
		return
	}
	count, err := w.store.IngestFile(ctx, path, fileID)
	if err != nil {
		if errors.Is(err, ErrEmptyDocument) {
			w.logger.Warn("skipping empty document", zap.String("path", path))
			return
		}
		w.logger.Error("failed to ingest file", zap.String("path", path), zap.Error(err))
		return
	}

	w.mu.Lock()
	w.hashes[path] = hash
	w.mu.Unlock()
	w.logger.Info("indexed file", zap.String("path", path), zap.Int("chunks", count))
}

func (w *DirectoryWatcher) remove(ctx context.Context, path string) {
	count, err := w.store.DeleteFile(ctx, pathFileID(path))
	if err != nil {
		w.logger.Error("failed to remove file from index", zap.String("path", path), zap.Error(err))
		return
	}

	w.mu.Lock()
	delete(w.hashes, path)
	w.mu.Unlock()
	w.logger.Info("removed file from index", zap.String("path", path), zap.Int("chunks", count))
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
