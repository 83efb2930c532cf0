package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
	"upfitter/showroom/internal/schema"
)

// CompleteBackupFile is the combined snapshot written into every backup directory.
const CompleteBackupFile = "complete-backup.json"

// BackupTypes is the allow-list of document types included in a snapshot.
var BackupTypes = []string{
	schema.TypeVehicle,
	schema.TypeManufacturer,
	schema.TypeBrand,
	schema.TypeAdditionalOption,
	schema.TypePage,
	schema.TypeSalesRepresentative,
	schema.TypeSiteSettings,
	schema.TypeNavigation,
	schema.TypeImageAsset,
}

// BackupMetadata describes a snapshot.
type BackupMetadata struct {
	ProjectID      string         `json:"projectId"`
	Dataset        string         `json:"dataset"`
	Timestamp      string         `json:"timestamp"`
	DocumentCounts map[string]int `json:"documentCounts"`
	TotalDocuments int            `json:"totalDocuments"`
}

// BackupFile is the layout of complete-backup.json.
type BackupFile struct {
	Metadata  BackupMetadata `json:"metadata"`
	Documents []cms.Document `json:"documents"`
}

// Uploader copies a finished backup directory somewhere durable.
type Uploader interface {
	UploadDir(ctx context.Context, dir, prefix string) ([]string, error)
}

// BackupResult reports what a backup run wrote.
type BackupResult struct {
	Dir          string
	Metadata     BackupMetadata
	UploadedKeys []string
}

// BackupJob writes a full snapshot of the allow-listed types.
type BackupJob struct {
	store     cms.DocumentStore
	projectID string
	dataset   string
	baseDir   string
	uploader  Uploader
	inst      instrument
	now       func() time.Time
}

// NewBackupJob creates a backup job. uploader may be nil.
func NewBackupJob(store cms.DocumentStore, projectID, dataset, baseDir string, uploader Uploader, m *metrics.MetricsRegistry) *BackupJob {
	if baseDir == "" {
		baseDir = "backups"
	}
	return &BackupJob{
		store:     store,
		projectID: projectID,
		dataset:   dataset,
		baseDir:   baseDir,
		uploader:  uploader,
		inst:      instrument{name: "backup", metrics: m},
		now:       time.Now,
	}
}

// BackupDirName returns backup-<ISO timestamp> with ':' and '.' replaced by '-'.
func BackupDirName(t time.Time) string {
	iso := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "backup-" + strings.NewReplacer(":", "-", ".", "-").Replace(iso)
}

// Run fetches every document in one query, groups by type in memory and
// writes <type>.json per type plus complete-backup.json.
func (j *BackupJob) Run(ctx context.Context) (*BackupResult, error) {
	start := time.Now()
	defer j.inst.done(start)

	now := j.now()
	logging.Info("Backup started", "project", j.projectID, "dataset", j.dataset)

	docs, err := j.store.FetchByTypes(ctx, BackupTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	if docs == nil {
		docs = []cms.Document{}
	}

	byType := make(map[string][]cms.Document)
	for _, d := range docs {
		byType[d.Type()] = append(byType[d.Type()], d)
	}

	dir := filepath.Join(j.baseDir, BackupDirName(now))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	counts := make(map[string]int, len(byType))
	for docType, group := range byType {
		counts[docType] = len(group)
		if err := writeJSON(filepath.Join(dir, docType+".json"), group); err != nil {
			return nil, err
		}
		logging.Info("Backed up document type", "type", docType, "count", len(group))
	}

	meta := BackupMetadata{
		ProjectID:      j.projectID,
		Dataset:        j.dataset,
		Timestamp:      now.UTC().Format(time.RFC3339Nano),
		DocumentCounts: counts,
		TotalDocuments: len(docs),
	}
	if err := writeJSON(filepath.Join(dir, CompleteBackupFile), BackupFile{Metadata: meta, Documents: docs}); err != nil {
		return nil, err
	}
	for range docs {
		j.inst.item(outcomeOK)
	}

	result := &BackupResult{Dir: dir, Metadata: meta}
	if j.uploader != nil {
		keys, err := j.uploader.UploadDir(ctx, dir, filepath.Base(dir))
		if err != nil {
			// The local snapshot is complete; a failed upload does not undo it.
			logging.Error("Backup upload failed", "dir", dir, "error", err)
			return result, fmt.Errorf("backup written to %s but upload failed: %w", dir, err)
		}
		result.UploadedKeys = keys
	}

	logging.Info("Backup completed",
		"dir", dir,
		"total_documents", meta.TotalDocuments,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
