package blocks

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"upfitter/showroom/internal/logging"
)

// Renderer turns blocks into HTML fragments. It is safe for concurrent use.
type Renderer struct {
	md       goldmark.Markdown
	sanitize *bluemonday.Policy
}

type RendererOption func(*Renderer)

// WithSanitizer passes html content through a UGC policy before output.
func WithSanitizer() RendererOption {
	return func(r *Renderer) { r.sanitize = bluemonday.UGCPolicy() }
}

func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		md: goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderContent renders exactly one content variant. nil and empty payloads
// render as "".
func (r *Renderer) RenderContent(c Content) string {
	switch v := c.(type) {
	case RichText:
		return renderPortable(v.Blocks)
	case Markdown:
		return r.renderMarkdown(v.Source)
	case HTML:
		if r.sanitize != nil {
			return r.sanitize.Sanitize(v.Markup)
		}
		return v.Markup
	case PlainText:
		if v.Text == "" {
			return ""
		}
		return "<p>" + strings.ReplaceAll(html.EscapeString(v.Text), "\n", "<br>\n") + "</p>"
	}
	return ""
}

func (r *Renderer) renderMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		logging.Warn("Markdown render failed", "error", err)
		return ""
	}
	return buf.String()
}

// RenderBlock renders one block. Unknown block types render as "".
func (r *Renderer) RenderBlock(b Block) string {
	var sb strings.Builder

	switch b.Type {
	case TypeTextBlock:
		body := r.RenderContent(b.Content)
		if body == "" && b.Title == "" {
			return ""
		}
		sb.WriteString(`<section class="text-block">`)
		writeHeading(&sb, "h2", b.Title)
		sb.WriteString(body)
		sb.WriteString(`</section>`)

	case TypeFullWidth:
		body := r.RenderContent(b.Content)
		if body == "" && b.Title == "" {
			return ""
		}
		sb.WriteString(`<section class="full-width">`)
		writeHeading(&sb, "h2", b.Title)
		sb.WriteString(body)
		sb.WriteString(`</section>`)

	case TypeTwoColumn, TypeThreeColumn:
		fmt.Fprintf(&sb, `<section class="columns columns-%d">`, len(b.Columns))
		writeHeading(&sb, "h2", b.Title)
		for _, col := range b.Columns {
			sb.WriteString(`<div class="column">`)
			sb.WriteString(r.RenderContent(col))
			sb.WriteString(`</div>`)
		}
		sb.WriteString(`</section>`)

	case TypeInfoSection:
		sb.WriteString(`<section class="info-section">`)
		writeHeading(&sb, "h2", b.Title)
		if b.Subtitle != "" {
			sb.WriteString(`<p class="subtitle">` + html.EscapeString(b.Subtitle) + `</p>`)
		}
		for _, item := range b.Items {
			sb.WriteString(`<div class="info-item">`)
			writeHeading(&sb, "h3", item.Heading)
			sb.WriteString(r.RenderContent(item.Content))
			sb.WriteString(`</div>`)
		}
		sb.WriteString(`</section>`)

	default:
		return ""
	}
	return sb.String()
}

// RenderPage renders each block once, in order. It returns the concatenated
// page markup and the markup of every block.
func (r *Renderer) RenderPage(bs []Block) (string, []string) {
	var sb strings.Builder
	parts := make([]string, len(bs))
	for i, b := range bs {
		parts[i] = r.RenderBlock(b)
		sb.WriteString(parts[i])
	}
	return sb.String(), parts
}

func writeHeading(sb *strings.Builder, tag, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(sb, "<%s>%s</%s>", tag, html.EscapeString(text), tag)
}
