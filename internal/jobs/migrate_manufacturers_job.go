package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/db/repositories"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
	"upfitter/showroom/internal/schema"
)

// ManufacturerIDPrefix prefixes the deterministic id of migrated manufacturers.
const ManufacturerIDPrefix = "manufacturer-"

// MigrateResult counts what a migration run did.
type MigrateResult struct {
	Scanned  int // vehicles with a string manufacturer
	Created  int // manufacturer documents created
	Existing int // manufacturers found already present
	Patched  int // vehicles rewritten to a reference
	Failed   int
}

// IdentityRegistry is the identity registry as the migration uses it.
type IdentityRegistry interface {
	schema.IdentityClaimer
	Release(ctx context.Context, docType, docID string) error
	Lookup(ctx context.Context, docType, slug string) (*repositories.Identity, error)
}

// MigrateManufacturersJob upgrades vehicle.manufacturer from a free-text
// name to a reference to a manufacturer document.
//
// The find-then-create step is not safe against a concurrent run. When a
// registry is configured, manufacturer identities are also claimed there,
// which rejects a second claimant, and a slug already claimed keeps the
// document id it was claimed for.
type MigrateManufacturersJob struct {
	store    cms.DocumentStore
	registry IdentityRegistry
	inst     instrument
}

// NewMigrateManufacturersJob creates the migration. registry may be nil.
func NewMigrateManufacturersJob(store cms.DocumentStore, registry IdentityRegistry, m *metrics.MetricsRegistry) *MigrateManufacturersJob {
	return &MigrateManufacturersJob{
		store:    store,
		registry: registry,
		inst:     instrument{name: "migrate_manufacturers", metrics: m},
	}
}

func (j *MigrateManufacturersJob) Run(ctx context.Context) (*MigrateResult, error) {
	start := time.Now()
	defer j.inst.done(start)

	vehicles, err := j.store.FindWithStringField(ctx, schema.TypeVehicle, "manufacturer")
	if err != nil {
		return nil, fmt.Errorf("failed to scan vehicles: %w", err)
	}

	result := &MigrateResult{Scanned: len(vehicles)}
	logging.Info("Manufacturer migration started", "vehicles", len(vehicles))

	// Distinct names, keyed by slug so "Ford" and "ford " collapse.
	names := make(map[string]string)
	for _, v := range vehicles {
		name := strings.TrimSpace(v.String("manufacturer"))
		key := slug.Make(name)
		if key == "" {
			continue
		}
		if _, seen := names[key]; !seen {
			names[key] = name
		}
	}

	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ids := make(map[string]string, len(keys))
	for _, key := range keys {
		id, created, err := j.findOrCreate(ctx, key, names[key])
		if err != nil {
			result.Failed++
			j.inst.item(outcomeFailed)
			logging.Error("Failed to create manufacturer", "slug", key, "name", names[key], "error", err)
			continue
		}
		ids[key] = id
		if created {
			result.Created++
			j.inst.item(outcomeCreated)
		} else {
			result.Existing++
			j.inst.item(outcomeExisted)
		}
	}

	for _, v := range vehicles {
		key := slug.Make(strings.TrimSpace(v.String("manufacturer")))
		id, ok := ids[key]
		if !ok {
			result.Failed++
			j.inst.item(outcomeSkipped)
			logging.Warn("No manufacturer for vehicle, skipping", "vehicle", v.ID(), "manufacturer", v.String("manufacturer"))
			continue
		}

		patch := cms.Set(v.ID(), map[string]any{"manufacturer": cms.Reference(id)})
		if _, err := j.store.Commit(ctx, []cms.Mutation{patch}); err != nil {
			result.Failed++
			j.inst.item(outcomeFailed)
			logging.Error("Failed to patch vehicle", "vehicle", v.ID(), "error", err)
			continue
		}
		result.Patched++
		j.inst.item(outcomeOK)
	}

	logging.Info("Manufacturer migration completed",
		"scanned", result.Scanned,
		"created", result.Created,
		"existing", result.Existing,
		"patched", result.Patched,
		"failed", result.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// findOrCreate returns the id of the manufacturer with slug key, creating it
// when absent.
func (j *MigrateManufacturersJob) findOrCreate(ctx context.Context, key, name string) (string, bool, error) {
	id := ManufacturerIDPrefix + key

	var claim *repositories.Identity
	if j.registry != nil {
		var err error
		claim, err = j.registry.Lookup(ctx, schema.TypeManufacturer, key)
		if err != nil {
			return "", false, err
		}
		if claim != nil {
			id = claim.DocumentID
		}
	}

	existing, err := j.store.FindBySlug(ctx, schema.TypeManufacturer, key)
	if err != nil {
		return "", false, err
	}
	if existing != nil {
		return cms.PublishedID(existing.ID()), false, nil
	}

	claimed := false
	if j.registry != nil && claim == nil {
		if err := j.registry.Claim(ctx, schema.TypeManufacturer, name, key, id); err != nil {
			return "", false, fmt.Errorf("failed to claim identity: %w", err)
		}
		claimed = true
	}

	doc, err := schema.Manufacturer{ID: id, Name: name, Slug: schema.NewSlug(key)}.Document()
	if err == nil {
		_, err = j.store.Commit(ctx, []cms.Mutation{cms.CreateIfNotExists(doc)})
	}
	if err != nil {
		if claimed {
			if relErr := j.registry.Release(ctx, schema.TypeManufacturer, id); relErr != nil {
				logging.Error("Failed to release identity claim", "id", id, "error", relErr)
			}
		}
		return "", false, err
	}
	return id, true, nil
}
