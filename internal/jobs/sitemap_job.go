package jobs

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/groq"
	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapEntry struct {
	Slug      string `json:"slug"`
	UpdatedAt string `json:"_updatedAt"`
}

type sitemapData struct {
	Vehicles []sitemapEntry `json:"vehicles"`
	Brands   []sitemapEntry `json:"brands"`
	Pages    []sitemapEntry `json:"pages"`
}

// Static routes always present in the sitemap.
var staticPaths = []string{"/", "/vehicles", "/brands", "/additional-options", "/contact"}

// SitemapJob regenerates sitemap.xml from the published slugs.
type SitemapJob struct {
	q       cms.Querier
	baseURL string
	out     string
	inst    instrument
}

func NewSitemapJob(q cms.Querier, baseURL, out string, m *metrics.MetricsRegistry) *SitemapJob {
	if out == "" {
		out = filepath.Join("public", "sitemap.xml")
	}
	return &SitemapJob{
		q:       q,
		baseURL: strings.TrimRight(baseURL, "/"),
		out:     out,
		inst:    instrument{name: "sitemap", metrics: m},
	}
}

// Run writes the sitemap and returns the number of URLs.
func (j *SitemapJob) Run(ctx context.Context) (int, error) {
	start := time.Now()
	defer j.inst.done(start)

	var data sitemapData
	if err := j.q.Query(ctx, "sitemap", groq.SitemapQuery, nil, &data); err != nil {
		return 0, fmt.Errorf("failed to fetch slugs: %w", err)
	}

	set := urlSet{NS: sitemapNS}
	for _, p := range staticPaths {
		set.URLs = append(set.URLs, sitemapURL{Loc: j.baseURL + p, Priority: "0.8"})
	}
	add := func(prefix string, entries []sitemapEntry, priority string) {
		for _, e := range entries {
			if e.Slug == "" {
				continue
			}
			set.URLs = append(set.URLs, sitemapURL{
				Loc:      j.baseURL + prefix + e.Slug,
				LastMod:  lastMod(e.UpdatedAt),
				Priority: priority,
			})
		}
	}
	add("/vehicles/", data.Vehicles, "0.7")
	add("/brands/", data.Brands, "0.6")
	add("/", data.Pages, "0.5")

	b, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	b = append([]byte(xml.Header), b...)

	if err := os.MkdirAll(filepath.Dir(j.out), 0o755); err != nil {
		return 0, err
	}
	tmp := j.out + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return 0, fmt.Errorf("failed to write sitemap: %w", err)
	}
	if err := os.Rename(tmp, j.out); err != nil {
		return 0, fmt.Errorf("failed to replace sitemap: %w", err)
	}

	for range set.URLs {
		j.inst.item(outcomeOK)
	}
	logging.Info("Sitemap generated", "path", j.out, "urls", len(set.URLs))
	return len(set.URLs), nil
}

// lastMod trims a timestamp to its date; unparseable values are dropped.
func lastMod(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
