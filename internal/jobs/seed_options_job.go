package jobs

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
	"upfitter/showroom/internal/schema"
)

//go:embed fixtures/additional_options.yaml
var defaultOptionFixtures []byte

// OptionIDPrefix prefixes the deterministic id of seeded options.
const OptionIDPrefix = "additionalOption-"

// OptionFixture groups the options of one manufacturer.
type OptionFixture struct {
	Manufacturer string                    `yaml:"manufacturer"`
	Options      []schema.AdditionalOption `yaml:"options"`
}

// ParseOptionFixtures decodes a fixture file.
func ParseOptionFixtures(b []byte) ([]OptionFixture, error) {
	var fixtures []OptionFixture
	if err := yaml.Unmarshal(b, &fixtures); err != nil {
		return nil, fmt.Errorf("failed to parse option fixtures: %w", err)
	}
	return fixtures, nil
}

// OptionID derives the stable id of a seeded option from its manufacturer
// and name.
func OptionID(manufacturer, name string) string {
	return OptionIDPrefix + slug.Make(manufacturer+" "+name)
}

// SeedResult counts what a seed run did.
type SeedResult struct {
	Upserted int
	Failed   int
}

// SeedOptionsJob upserts the fixture options. Ids are content-derived and
// writes are create-or-replace, so reruns converge on the same documents.
type SeedOptionsJob struct {
	store    cms.DocumentStore
	fixtures []byte
	inst     instrument
}

// NewSeedOptionsJob creates a seed job. nil fixtures use the embedded set.
func NewSeedOptionsJob(store cms.DocumentStore, fixtures []byte, m *metrics.MetricsRegistry) *SeedOptionsJob {
	if fixtures == nil {
		fixtures = defaultOptionFixtures
	}
	return &SeedOptionsJob{
		store:    store,
		fixtures: fixtures,
		inst:     instrument{name: "seed_options", metrics: m},
	}
}

func (j *SeedOptionsJob) Run(ctx context.Context) (*SeedResult, error) {
	start := time.Now()
	defer j.inst.done(start)

	fixtures, err := ParseOptionFixtures(j.fixtures)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{}
	for _, group := range fixtures {
		var mfrRef *schema.Reference
		mfr, err := j.store.FindBySlug(ctx, schema.TypeManufacturer, slug.Make(group.Manufacturer))
		if err != nil {
			logging.Warn("Manufacturer lookup failed, seeding without reference", "manufacturer", group.Manufacturer, "error", err)
		} else if mfr != nil {
			ref := schema.NewReference(cms.PublishedID(mfr.ID()))
			mfrRef = &ref
		}

		for _, opt := range group.Options {
			opt.ID = OptionID(group.Manufacturer, opt.Name)
			opt.Slug = schema.NewSlug(slug.Make(group.Manufacturer + " " + opt.Name))
			opt.Manufacturer = mfrRef

			if err := j.upsert(ctx, opt); err != nil {
				result.Failed++
				j.inst.item(outcomeFailed)
				logging.Error("Failed to seed option", "id", opt.ID, "error", err)
				continue
			}
			result.Upserted++
			j.inst.item(outcomeOK)
		}
	}

	logging.Info("Option seeding completed",
		"upserted", result.Upserted,
		"failed", result.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (j *SeedOptionsJob) upsert(ctx context.Context, opt schema.AdditionalOption) error {
	if err := opt.Validate(); err != nil {
		return fmt.Errorf("invalid option: %w", err)
	}
	doc, err := opt.Document()
	if err != nil {
		return err
	}
	_, err = j.store.Commit(ctx, []cms.Mutation{cms.CreateOrReplace(doc)})
	return err
}
