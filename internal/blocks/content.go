// Package blocks decodes page-builder blocks and renders them to HTML.
package blocks

// ContentType selects which content field of a block is active.
type ContentType string

const (
	ContentRichText  ContentType = "richText"
	ContentMarkdown  ContentType = "markdown"
	ContentHTML      ContentType = "html"
	ContentPlainText ContentType = "plainText"
)

// Field names of the four mutually exclusive content payloads.
const (
	fieldContentType = "contentType"
	fieldRichText    = "richTextContent"
	fieldMarkdown    = "markdownContent"
	fieldHTML        = "htmlContent"
	fieldPlainText   = "plainTextContent"
)

// Content is one of RichText, Markdown, HTML or PlainText. The set is closed.
type Content interface {
	Type() ContentType
	isContent()
}

// RichText is portable text: an array of block and span records.
type RichText struct {
	Blocks []TextBlock
}

type Markdown struct {
	Source string
}

// HTML is editor-supplied markup. It is emitted as-is unless the renderer
// was built with sanitizing enabled.
type HTML struct {
	Markup string
}

type PlainText struct {
	Text string
}

func (RichText) Type() ContentType  { return ContentRichText }
func (Markdown) Type() ContentType  { return ContentMarkdown }
func (HTML) Type() ContentType      { return ContentHTML }
func (PlainText) Type() ContentType { return ContentPlainText }

func (RichText) isContent()  {}
func (Markdown) isContent()  {}
func (HTML) isContent()      {}
func (PlainText) isContent() {}

// DecodeContent reads contentType from fields and decodes only the matching
// payload. Data left in the other three fields is ignored. A missing or
// unknown contentType yields nil.
func DecodeContent(fields map[string]any) Content {
	if fields == nil {
		return nil
	}
	tag, _ := fields[fieldContentType].(string)

	switch ContentType(tag) {
	case ContentRichText:
		return RichText{Blocks: decodeTextBlocks(fields[fieldRichText])}
	case ContentMarkdown:
		s, _ := fields[fieldMarkdown].(string)
		return Markdown{Source: s}
	case ContentHTML:
		s, _ := fields[fieldHTML].(string)
		return HTML{Markup: s}
	case ContentPlainText:
		s, _ := fields[fieldPlainText].(string)
		return PlainText{Text: s}
	}
	return nil
}
