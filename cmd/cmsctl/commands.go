package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"upfitter/showroom/internal/jobs"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/preview"
	"upfitter/showroom/internal/storage"
)

const s3Scheme = "s3://"

var backupCmd = &cobra.Command{
	Use:   "backup [baseDir]",
	Short: "Write a full snapshot of the dataset to a timestamped directory",
	Long: `Fetches every document of the backed-up types and writes one JSON file per
type plus complete-backup.json under <baseDir>/backup-<timestamp>/.

When BACKUP_S3_* is configured the directory is also uploaded.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient(false)
		if err != nil {
			return err
		}

		baseDir := cfg.Backup.Dir
		if len(args) == 1 {
			baseDir = args[0]
		}

		var uploader jobs.Uploader
		if cfg.Backup.S3Enabled() {
			store, err := storage.NewMinIOStorage(ctx, cfg.Backup)
			if err != nil {
				return err
			}
			uploader = store
		}

		res, err := jobs.NewBackupJob(client, cfg.CMS.ProjectID, cfg.CMS.Dataset, baseDir, uploader, metricsReg).Run(ctx)
		if res != nil {
			fmt.Printf("Backup written to %s (%d documents)\n", res.Dir, res.Metadata.TotalDocuments)
			for docType, n := range res.Metadata.DocumentCounts {
				fmt.Printf("  %-22s %d\n", docType, n)
			}
			if len(res.UploadedKeys) > 0 {
				fmt.Printf("Uploaded %d objects to %s\n", len(res.UploadedKeys), cfg.Backup.S3Bucket)
			}
		}
		return err
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backupDir|s3://prefix>",
	Short: "Replay a backup into the dataset with createOrReplace",
	Long: `Reads complete-backup.json from the backup directory (or from the
configured bucket when given s3://<prefix>) and writes every document back in
batches of 10, one transaction per batch.

A failing batch stops the restore. Batches committed before it stay
committed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir := args[0]

		if strings.HasPrefix(dir, s3Scheme) {
			local, cleanup, err := fetchBackup(cmd, strings.TrimPrefix(dir, s3Scheme))
			if err != nil {
				return err
			}
			defer cleanup()
			dir = local
		}

		// Fail before touching the dataset when there is nothing to restore.
		if _, err := jobs.LoadBackup(dir); err != nil {
			return err
		}

		client, err := newClient(true)
		if err != nil {
			return err
		}

		res, err := jobs.NewRestoreJob(client, metricsReg).Run(ctx, dir)
		if res != nil {
			fmt.Printf("Restored %d documents in %d batches\n", res.Documents, res.Batches)
		}
		var batchErr *jobs.BatchError
		if errors.As(err, &batchErr) {
			fmt.Fprintf(os.Stderr, "Batch %d failed; %d documents were already committed and were not rolled back\n", batchErr.Batch, batchErr.Committed)
		}
		return err
	},
}

func fetchBackup(cmd *cobra.Command, prefix string) (string, func(), error) {
	if !cfg.Backup.S3Enabled() {
		return "", nil, errors.New("s3 restore requires BACKUP_S3_ENDPOINT, BACKUP_S3_ACCESS_KEY and BACKUP_S3_SECRET_KEY")
	}
	store, err := storage.NewMinIOStorage(cmd.Context(), cfg.Backup)
	if err != nil {
		return "", nil, err
	}

	tmp, err := os.MkdirTemp("", "cmsctl-restore-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmp) }

	key := strings.Trim(prefix, "/") + "/" + jobs.CompleteBackupFile
	if err := store.FetchFile(cmd.Context(), key, filepath.Join(tmp, jobs.CompleteBackupFile)); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: %v", jobs.ErrBackupNotFound, err)
	}
	return tmp, cleanup, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate-manufacturers",
	Short: "Turn vehicle manufacturer strings into manufacturer references",
	Long: `Finds vehicles whose manufacturer is still a plain string, creates or finds
one manufacturer document per distinct name (id manufacturer-<slug>) and
rewrites each vehicle's field into a reference.

Safe to rerun; not safe to run twice at the same time without an identity
registry (REGISTRY_DSN).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(true)
		if err != nil {
			return err
		}
		registry, closeRegistry, err := openRegistry()
		if err != nil {
			return err
		}
		defer closeRegistry()

		var reg jobs.IdentityRegistry
		if registry != nil {
			reg = registry
		}

		res, err := jobs.NewMigrateManufacturersJob(client, reg, metricsReg).Run(cmd.Context())
		if res != nil {
			fmt.Printf("Scanned %d vehicles: %d manufacturers created, %d existing, %d vehicles patched, %d failed\n",
				res.Scanned, res.Created, res.Existing, res.Patched, res.Failed)
		}
		return err
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed-options [fixtures.yaml]",
	Short: "Upsert the additional option fixtures",
	Long: `Writes each fixture option with createOrReplace under a deterministic id
derived from its manufacturer and name, so reruns are idempotent. Without an
argument the built-in fixtures are used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var fixtures []byte
		if len(args) == 1 {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read fixtures: %w", err)
			}
			fixtures = b
		}

		client, err := newClient(true)
		if err != nil {
			return err
		}

		res, err := jobs.NewSeedOptionsJob(client, fixtures, metricsReg).Run(cmd.Context())
		if res != nil {
			fmt.Printf("Upserted %d options, %d failed\n", res.Upserted, res.Failed)
		}
		return err
	},
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap [outFile]",
	Short: "Regenerate sitemap.xml",
	Long: `Writes sitemap.xml from the vehicle, brand and page slugs.

Always exits 0: a failed refresh is logged and must not fail a deployment.`,
	Args: cobra.MaximumNArgs(1),
	// Configuration errors are logged here instead of failing the command.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			logging.Warn("Sitemap skipped", "error", err.Error())
			cfg = nil
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return nil
		}
		out := ""
		if len(args) == 1 {
			out = args[0]
		}

		client, err := newClient(false)
		if err != nil {
			logging.Warn("Sitemap skipped", "error", err.Error())
			return nil
		}

		n, err := jobs.NewSitemapJob(client, cfg.Sitemap.BaseURL, out, metricsReg).Run(cmd.Context())
		if err != nil {
			logging.Error("Sitemap generation failed", "error", err.Error())
			return nil
		}
		fmt.Printf("Sitemap written with %d URLs\n", n)
		return nil
	},
}

var previewTokenCmd = &cobra.Command{
	Use:   "preview-token [subject]",
	Short: "Print a single-use preview token",
	Long:  `Signs a token that /api/preview exchanges for the draft preview cookie.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := "editor"
		if len(args) == 1 {
			subject = args[0]
		}
		token, err := preview.NewSigner([]byte(cfg.Preview.Secret), nil).Issue(subject, cfg.Preview.TTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}
