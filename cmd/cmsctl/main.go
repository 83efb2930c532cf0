// Command cmsctl runs the maintenance jobs against the CMS dataset.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/common"
	"upfitter/showroom/internal/config"
	"upfitter/showroom/internal/db"
	"upfitter/showroom/internal/db/repositories"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
)

var (
	cfg        *config.Config
	metricsReg = metrics.NewNopRegistry()
)

var rootCmd = &cobra.Command{
	Use:   "cmsctl",
	Short: "Maintenance jobs for the showroom CMS dataset",
	Long: `cmsctl backs up, restores, migrates and seeds the CMS dataset, and
regenerates the sitemap.

Configuration comes from the environment (and .env when present).
Exit status is 1 when a precondition fails, such as a missing token or
backup directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		return logging.Init(cfg.App.Environment)
	},
}

func init() {
	rootCmd.AddCommand(backupCmd, restoreCmd, migrateCmd, seedCmd, sitemapCmd, previewTokenCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		logging.Close()
		stop()
		os.Exit(1)
	}
	logging.Close()
}

// newClient returns a dataset client. Writes always need the write token.
// Reads fall back to the write token, then to anonymous access outside
// production.
func newClient(write bool) (*cms.Client, error) {
	token := cfg.CMS.ReadToken
	switch {
	case write:
		if err := cfg.RequireWriteToken(); err != nil {
			return nil, err
		}
		token = cfg.CMS.WriteToken
	case token == "":
		if err := cfg.RequireReadToken(); err != nil {
			return nil, err
		}
		token = cfg.CMS.WriteToken
	}
	opts := []cms.Option{cms.WithMetrics(metricsReg)}
	if cfg.CMS.Debug {
		opts = append(opts, cms.WithHTTPClient(&http.Client{Transport: &common.DumpTransport{}}))
	}
	return cms.NewClient(cms.Config{
		ProjectID:  cfg.CMS.ProjectID,
		Dataset:    cfg.CMS.Dataset,
		APIVersion: cfg.CMS.APIVersion,
		APIHost:    cfg.CMS.APIHost,
		Token:      token,
	}, opts...), nil
}

// openRegistry opens the identity registry, or returns nil when none is configured.
func openRegistry() (*repositories.IdentityRepository, func(), error) {
	if cfg.Registry.DSN == "" {
		return nil, func() {}, nil
	}
	orm, err := db.OpenORM(cfg.Registry.DSN)
	if err != nil {
		return nil, nil, err
	}
	sx, err := db.OpenSQLX(cfg.Registry.DSN, orm)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := orm.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repositories.NewIdentityRepository(orm, sx), closeFn, nil
}
