// Package images rewrites CMS image-asset URLs to request a given encoding.
package images

import (
	"net/url"
	"strings"
)

const (
	assetType = "sanity.imageAsset"
	cdnPrefix = "cdn.sanity.io/images/"

	// DefaultFormat is the encoding requested when none is configured.
	DefaultFormat = "webp"
)

// RewriteFormat returns a copy of v in which every image-asset URL requests
// the given format through the fm query parameter. The copy has the same
// keys and array lengths as v; only matching url strings differ. v is not
// modified. Applying the rewrite twice gives the same result as once.
//
// v is expected to be a decoded JSON tree (map[string]any, []any and
// scalars). There is no cycle detection.
func RewriteFormat(v any, format string) any {
	if format == "" {
		format = DefaultFormat
	}
	return rewrite(v, format)
}

func rewrite(v any, format string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		asset := isAsset(t)
		for k, val := range t {
			if asset && k == "url" {
				if s, ok := val.(string); ok {
					out[k] = withFormat(s, format)
					continue
				}
			}
			out[k] = rewrite(val, format)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = rewrite(val, format)
		}
		return out
	default:
		return v
	}
}

// isAsset reports whether m has the shape of an image asset: either typed as
// one, or carrying a url on the image CDN.
func isAsset(m map[string]any) bool {
	if t, _ := m["_type"].(string); t == assetType {
		return true
	}
	u, _ := m["url"].(string)
	return strings.Contains(u, cdnPrefix)
}

// withFormat sets fm=format on raw, replacing any existing fm values.
// Unparseable URLs are returned unchanged.
func withFormat(raw, format string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if vals, ok := q["fm"]; ok && len(vals) == 1 && vals[0] == format {
		return raw
	}
	q.Set("fm", format)
	u.RawQuery = q.Encode()
	return u.String()
}
