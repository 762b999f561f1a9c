// Package resilience wraps the vector index with a single-shot recovery for
// read-only storage failures on writes and deletes.
package resilience

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunko/internal/index"
)

// Index decorates a VectorIndex: a write or delete that fails because the
// backing store is read-only triggers one permission repair of the persistence
// directory tree and one retry. Any other failure, or a second failure after
// remediation, propagates unchanged. Read operations delegate directly.
type Index struct {
	index.VectorIndex
	persistDir string
	retryDelay time.Duration
	logger     *zap.Logger
}

// Option configures the wrapper.
type Option func(*Index)

// WithRetryDelay adds a fixed delay between remediation and the retry.
func WithRetryDelay(d time.Duration) Option {
	return func(r *Index) { r.retryDelay = d }
}

// WithLogger sets a logger for remediation events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Index) { r.logger = l }
}

// Wrap decorates inner with read-only recovery. persistDir is the index's
// persistence directory; when empty, remediation is skipped and the retry
// happens after the optional delay only.
func Wrap(inner index.VectorIndex, persistDir string, opts ...Option) *Index {
	r := &Index{VectorIndex: inner, persistDir: persistDir}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add writes records, retrying exactly once after permission repair when the
// store reports itself read-only.
func (r *Index) Add(ctx context.Context, ids, texts []string, metadatas []map[string]interface{}) error {
	err := r.VectorIndex.Add(ctx, ids, texts, metadatas)
	if err == nil || !index.IsReadOnly(err) {
		return err
	}
	r.remediate(err)
	return r.VectorIndex.Add(ctx, ids, texts, metadatas)
}

// Delete removes records, retrying exactly once after permission repair when
// the store reports itself read-only.
func (r *Index) Delete(ctx context.Context, ids []string) error {
	err := r.VectorIndex.Delete(ctx, ids)
	if err == nil || !index.IsReadOnly(err) {
		return err
	}
	r.remediate(err)
	return r.VectorIndex.Delete(ctx, ids)
}

func (r *Index) remediate(cause error) {
	if r.logger != nil {
		r.logger.Warn("index store read-only, repairing permissions",
			zap.String("persist_dir", r.persistDir),
			zap.Error(cause),
		)
	}
	if r.persistDir != "" {
		if err := RepairPermissions(r.persistDir); err != nil && r.logger != nil {
			r.logger.Warn("permission repair failed", zap.Error(err))
		}
	}
	if r.retryDelay > 0 {
		time.Sleep(r.retryDelay)
	}
}

// RepairPermissions makes every directory under root traversable and writable
// and every file readable and writable. Missing roots are not an error.
func RepairPermissions(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return os.Chmod(path, 0o777)
		}
		return os.Chmod(path, 0o666)
	})
}
