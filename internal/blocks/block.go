package blocks

// BlockType is the page-builder block tag.
type BlockType string

const (
	TypeTextBlock   BlockType = "textBlock"
	TypeTwoColumn   BlockType = "twoColumnLayout"
	TypeThreeColumn BlockType = "threeColumnLayout"
	TypeFullWidth   BlockType = "fullWidthLayout"
	TypeInfoSection BlockType = "infoSection"
)

// Block is one entry of a page's pageBuilder array.
//
// Text and full-width blocks carry a single Content. Column layouts carry one
// Content per column in left, center, right order. Info sections carry Items.
type Block struct {
	Key      string
	Type     BlockType
	Title    string
	Subtitle string
	Content  Content
	Columns  []Content
	Items    []InfoItem
	Raw      map[string]any
}

// InfoItem is one heading/content pair of an info section.
type InfoItem struct {
	Heading string
	Content Content
}

var columnFields = map[BlockType][]string{
	TypeTwoColumn:   {"leftColumn", "rightColumn"},
	TypeThreeColumn: {"leftColumn", "centerColumn", "rightColumn"},
}

// DecodeBlock decodes one raw block. Unknown block types decode with only
// Key, Type and Raw set and render as nothing.
func DecodeBlock(raw map[string]any) Block {
	b := Block{
		Key:      str(raw, "_key"),
		Type:     BlockType(str(raw, "_type")),
		Title:    str(raw, "title"),
		Subtitle: str(raw, "subtitle"),
		Raw:      raw,
	}

	switch b.Type {
	case TypeTextBlock, TypeFullWidth:
		b.Content = DecodeContent(raw)
	case TypeTwoColumn, TypeThreeColumn:
		for _, field := range columnFields[b.Type] {
			col, _ := raw[field].(map[string]any)
			b.Columns = append(b.Columns, DecodeContent(col))
		}
	case TypeInfoSection:
		items, _ := raw["items"].([]any)
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			b.Items = append(b.Items, InfoItem{Heading: str(m, "heading"), Content: DecodeContent(m)})
		}
	}
	return b
}

// DecodeBlocks decodes a pageBuilder array, skipping entries that are not objects.
func DecodeBlocks(v any) []Block {
	items, _ := v.([]any)
	out := make([]Block, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, DecodeBlock(m))
		}
	}
	return out
}
