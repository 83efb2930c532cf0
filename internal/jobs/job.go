// Package jobs implements the one-shot maintenance jobs run against the CMS
// dataset: backup, restore, migration, seeding and sitemap generation.
package jobs

import (
	"time"

	"upfitter/showroom/internal/metrics"
)

// Job outcome labels
const (
	outcomeOK      = "ok"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
	outcomeCreated = "created"
	outcomeExisted = "existed"
)

// instrument wraps a job's metrics. A nil registry records nothing.
type instrument struct {
	name    string
	metrics *metrics.MetricsRegistry
}

func (i instrument) item(outcome string) {
	if i.metrics == nil {
		return
	}
	i.metrics.JobItemsTotal.WithLabelValues(i.name, outcome).Inc()
}

func (i instrument) done(start time.Time) {
	if i.metrics == nil {
		return
	}
	i.metrics.JobDuration.WithLabelValues(i.name).Observe(time.Since(start).Seconds())
}
