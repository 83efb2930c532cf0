package cms

import "strings"

// DraftPrefix marks unpublished document ids.
const DraftPrefix = "drafts."

// Document is a raw CMS document as returned by the query endpoint.
type Document map[string]any

func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

func (d Document) Type() string {
	t, _ := d["_type"].(string)
	return t
}

func (d Document) Rev() string {
	r, _ := d["_rev"].(string)
	return r
}

// String returns a top-level string field, or "" when absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Slug returns slug.current.
func (d Document) Slug() string {
	if s, ok := d["slug"].(map[string]any); ok {
		cur, _ := s["current"].(string)
		return cur
	}
	return ""
}

// WithoutRevision returns a shallow copy with the _rev field removed.
func (d Document) WithoutRevision() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == "_rev" {
			continue
		}
		out[k] = v
	}
	return out
}

// IsDraft reports whether the id is a draft id.
func IsDraft(id string) bool {
	return strings.HasPrefix(id, DraftPrefix)
}

// PublishedID strips the draft prefix.
func PublishedID(id string) string {
	return strings.TrimPrefix(id, DraftPrefix)
}

// Reference builds a strong reference value.
func Reference(id string) map[string]any {
	return map[string]any{
		"_type": "reference",
		"_ref":  id,
	}
}
