package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
)

// RestoreBatchSize is the number of documents written per transaction.
const RestoreBatchSize = 10

// ErrBackupNotFound is returned when no backup directory was given or it
// has no complete-backup.json.
var ErrBackupNotFound = errors.New("backup not found")

// BatchError reports the batch that aborted a restore. Earlier batches are
// already committed; there is no rollback.
type BatchError struct {
	Batch     int // zero-based
	Committed int // documents committed before the failing batch
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("restore batch %d failed after %d documents were committed: %v", e.Batch, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// RestoreResult reports what a restore run wrote.
type RestoreResult struct {
	Metadata  BackupMetadata
	Batches   int
	Documents int
}

// RestoreJob replays a snapshot with create-or-replace.
type RestoreJob struct {
	store     cms.DocumentStore
	batchSize int
	inst      instrument
}

func NewRestoreJob(store cms.DocumentStore, m *metrics.MetricsRegistry) *RestoreJob {
	return &RestoreJob{
		store:     store,
		batchSize: RestoreBatchSize,
		inst:      instrument{name: "restore", metrics: m},
	}
}

// LoadBackup reads complete-backup.json from dir.
func LoadBackup(dir string) (*BackupFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: no backup directory given", ErrBackupNotFound)
	}
	path := filepath.Join(dir, CompleteBackupFile)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var backup BackupFile
	if err := json.Unmarshal(b, &backup); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &backup, nil
}

// Run restores the backup in dir. Revision ids are stripped, so the write is
// last-writer-wins. A failing batch aborts the run with a *BatchError; the
// batches before it stay committed.
func (j *RestoreJob) Run(ctx context.Context, dir string) (*RestoreResult, error) {
	start := time.Now()
	defer j.inst.done(start)

	backup, err := LoadBackup(dir)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Metadata: backup.Metadata}
	logging.Info("Restore started",
		"dir", dir,
		"documents", len(backup.Documents),
		"backup_timestamp", backup.Metadata.Timestamp,
	)

	for batch, i := 0, 0; i < len(backup.Documents); batch, i = batch+1, i+j.batchSize {
		end := min(i+j.batchSize, len(backup.Documents))

		mutations := make([]cms.Mutation, 0, end-i)
		for _, doc := range backup.Documents[i:end] {
			if doc.ID() == "" {
				j.inst.item(outcomeSkipped)
				logging.Warn("Skipping document without _id", "batch", batch, "type", doc.Type())
				continue
			}
			mutations = append(mutations, cms.CreateOrReplace(doc.WithoutRevision()))
		}
		if len(mutations) == 0 {
			continue
		}

		if _, err := j.store.Commit(ctx, mutations); err != nil {
			for range mutations {
				j.inst.item(outcomeFailed)
			}
			logging.Error("Restore batch failed; earlier batches remain committed",
				"batch", batch,
				"committed_batches", result.Batches,
				"committed_documents", result.Documents,
				"error", err,
			)
			return result, &BatchError{Batch: batch, Committed: result.Documents, Err: err}
		}

		result.Batches++
		result.Documents += len(mutations)
		for range mutations {
			j.inst.item(outcomeOK)
		}
		logging.Info("Restore batch committed", "batch", batch, "documents", len(mutations))
	}

	logging.Info("Restore completed",
		"documents", result.Documents,
		"batches", result.Batches,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}
