package blocks

// TextBlock is a portable text block record.
type TextBlock struct {
	Key      string
	Style    string // normal, h1-h4, blockquote
	ListItem string // bullet, number, or empty
	Level    int
	Children []Span
	MarkDefs []MarkDef
}

// Span is a run of text with decorator marks and mark-definition keys.
type Span struct {
	Text  string
	Marks []string
}

// MarkDef is an annotation referenced from a span's marks, e.g. a link.
type MarkDef struct {
	Key  string
	Type string
	Href string
}

func decodeTextBlocks(v any) []TextBlock {
	items, _ := v.([]any)
	out := make([]TextBlock, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := m["_type"].(string); t != "" && t != "block" {
			continue
		}
		out = append(out, TextBlock{
			Key:      str(m, "_key"),
			Style:    str(m, "style"),
			ListItem: str(m, "listItem"),
			Level:    num(m, "level"),
			Children: decodeSpans(m["children"]),
			MarkDefs: decodeMarkDefs(m["markDefs"]),
		})
	}
	return out
}

func decodeSpans(v any) []Span {
	items, _ := v.([]any)
	out := make([]Span, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Span{Text: str(m, "text"), Marks: strs(m["marks"])})
	}
	return out
}

func decodeMarkDefs(v any) []MarkDef {
	items, _ := v.([]any)
	out := make([]MarkDef, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, MarkDef{Key: str(m, "_key"), Type: str(m, "_type"), Href: str(m, "href")})
	}
	return out
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) int {
	switch n := m[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func strs(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
