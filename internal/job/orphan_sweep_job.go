// Package job holds the scheduled maintenance jobs.
package job

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/bartek717/passionproject/internal/filestore"
)

// PathLister yields every blob key a document record still references.
type PathLister interface {
	ListAllPaths(ctx context.Context) ([]string, error)
}

// OrphanSweepJob deletes blobs no document record points at. Orphans
// appear when a crash lands between a blob upload and its record
// insert, or between a record delete and its blob delete.
type OrphanSweepJob struct {
	paths PathLister
	store filestore.Store
}

func NewOrphanSweepJob(paths PathLister, store filestore.Store) *OrphanSweepJob {
	return &OrphanSweepJob{paths: paths, store: store}
}

func (j *OrphanSweepJob) Name() string {
	return "orphan_blob_sweep"
}

func (j *OrphanSweepJob) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)

	// Snapshot blobs before records. An ingest racing the sweep is then
	// either absent from the blob snapshot or present in the newer
	// referenced set; listing records first would let it slip between the
	// two and get its blob deleted out from under the row.
	keys, err := j.store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list stored blobs: %w", err)
	}

	referenced, err := j.paths.ListAllPaths(ctx)
	if err != nil {
		return fmt.Errorf("list referenced paths: %w", err)
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, path := range referenced {
		keep[path] = struct{}{}
	}

	var removed, failed int
	for _, key := range keys {
		if _, ok := keep[key]; ok {
			continue
		}
		if err := j.store.Delete(ctx, key); err != nil {
			logger.Error("failed to delete orphan blob", zap.String("key", key), zap.Error(err))
			failed++
			continue
		}
		logger.Info("orphan blob deleted", zap.String("key", key))
		removed++
	}
	logger.Info("orphan sweep done",
		zap.Int("scanned", len(keys)),
		zap.Int("removed", removed),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return fmt.Errorf("%d orphan blobs could not be deleted", failed)
	}
	return nil
}
