package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"upfitter/showroom/internal/blocks"
	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/common"
	"upfitter/showroom/internal/config"
	"upfitter/showroom/internal/db"
	"upfitter/showroom/internal/db/repositories"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
	"upfitter/showroom/internal/preview"
	"upfitter/showroom/internal/schema"
)

// Pinger is implemented by backing stores reported on /healthCheck.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies is everything the handlers need. It is built once per process
// and passed down; nothing here is a package-level singleton.
type Dependencies struct {
	Config *config.Config

	// Content serves published reads, through the query cache when one is
	// configured. Drafts reads with the previewDrafts perspective and is nil
	// when preview is disabled.
	Content cms.Querier
	Drafts  cms.Querier

	Renderer  *blocks.Renderer
	Validator *schema.UniquenessValidator
	Signer    *preview.Signer
	Registry  Pinger
	Cache     common.CacheInterface
	Metrics   *metrics.MetricsRegistry

	closers []func() error
}

// InitDependencies wires the content client, cache, identity registry and
// preview signer from configuration.
func InitDependencies(cfg *config.Config, metricsReg *metrics.MetricsRegistry) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Metrics: metricsReg,
	}

	cache, err := newCache(cfg)
	if err != nil {
		return nil, err
	}
	deps.Cache = cache
	deps.closers = append(deps.closers, cache.Close)

	clientOpts := []cms.Option{cms.WithMetrics(metricsReg)}
	if cfg.CMS.Debug {
		clientOpts = append(clientOpts, cms.WithHTTPClient(&http.Client{Transport: &common.DumpTransport{}}))
	}
	client := cms.NewClient(cms.Config{
		ProjectID:  cfg.CMS.ProjectID,
		Dataset:    cfg.CMS.Dataset,
		APIVersion: cfg.CMS.APIVersion,
		APIHost:    cfg.CMS.APIHost,
		Token:      cfg.CMS.ReadToken,
		UseCDN:     cfg.CMS.UseCDN,
	}, clientOpts...)
	deps.Content = cms.NewCachedClient(client, cache, cfg.Cache.TTL, metricsReg)

	deps.Signer = preview.NewSigner([]byte(cfg.Preview.Secret), cache)
	if deps.Signer.Enabled() {
		deps.Drafts = client.WithPerspective(cms.PerspectivePreviewDrafts)
	}

	var claimer schema.IdentityClaimer
	if cfg.Registry.DSN != "" {
		registry, closeRegistry, err := openRegistry(cfg.Registry.DSN)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, closeRegistry)
		deps.Registry = registry
		claimer = registry
	}
	// Uniqueness checks always see fresh data.
	deps.Validator = schema.NewUniquenessValidator(client, claimer)

	var opts []blocks.RendererOption
	if cfg.HTTP.SanitizeHTML {
		opts = append(opts, blocks.WithSanitizer())
	}
	deps.Renderer = blocks.NewRenderer(opts...)

	logging.Info("Dependencies initialized",
		"cache_ttl", cfg.Cache.TTL.String(),
		"redis", cfg.Redis.Host != "",
		"registry", cfg.Registry.DSN != "",
		"preview", deps.Signer.Enabled(),
		"sanitize_html", cfg.HTTP.SanitizeHTML,
	)
	return deps, nil
}

// Close releases the cache and registry connections.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

func newCache(cfg *config.Config) (common.CacheInterface, error) {
	if cfg.Redis.Host == "" {
		return common.NewCacheService(5*time.Minute, 10*time.Minute), nil
	}
	client, err := common.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	return common.NewRedisCacheService(client, "showroom:"), nil
}

func openRegistry(dsn string) (*repositories.IdentityRepository, func() error, error) {
	orm, err := db.OpenORM(dsn)
	if err != nil {
		return nil, nil, err
	}
	sx, err := db.OpenSQLX(dsn, orm)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open registry reader: %w", err)
	}

	closeAll := func() error {
		if db.IsPostgresDSN(dsn) {
			if err := sx.Close(); err != nil {
				return err
			}
		}
		sqlDB, err := orm.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return repositories.NewIdentityRepository(orm, sx), closeAll, nil
}
