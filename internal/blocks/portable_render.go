package blocks

import (
	"html"
	"strings"
)

var styleTags = map[string]string{
	"normal":     "p",
	"h1":         "h1",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"blockquote": "blockquote",
}

var decoratorTags = map[string]string{
	"strong":    "strong",
	"em":        "em",
	"code":      "code",
	"underline": "u",
}

var listTags = map[string]string{
	"bullet": "ul",
	"number": "ol",
}

// renderPortable renders portable text blocks. Consecutive list items of the
// same kind are grouped into one list element; nesting levels are flattened.
func renderPortable(blocks []TextBlock) string {
	var sb strings.Builder
	openList := ""

	closeList := func() {
		if openList != "" {
			sb.WriteString("</" + openList + ">")
			openList = ""
		}
	}

	for _, b := range blocks {
		if tag, ok := listTags[b.ListItem]; ok {
			if openList != tag {
				closeList()
				sb.WriteString("<" + tag + ">")
				openList = tag
			}
			sb.WriteString("<li>")
			writeSpans(&sb, b)
			sb.WriteString("</li>")
			continue
		}
		closeList()

		tag, ok := styleTags[b.Style]
		if !ok {
			tag = "p"
		}
		sb.WriteString("<" + tag + ">")
		writeSpans(&sb, b)
		sb.WriteString("</" + tag + ">")
	}
	closeList()
	return sb.String()
}

func writeSpans(sb *strings.Builder, b TextBlock) {
	defs := make(map[string]MarkDef, len(b.MarkDefs))
	for _, d := range b.MarkDefs {
		defs[d.Key] = d
	}

	for _, span := range b.Children {
		var opens, closes []string
		for _, mark := range span.Marks {
			if tag, ok := decoratorTags[mark]; ok {
				opens = append(opens, "<"+tag+">")
				closes = append(closes, "</"+tag+">")
				continue
			}
			if def, ok := defs[mark]; ok && def.Type == "link" && def.Href != "" {
				opens = append(opens, `<a href="`+html.EscapeString(def.Href)+`">`)
				closes = append(closes, "</a>")
			}
		}

		for _, o := range opens {
			sb.WriteString(o)
		}
		sb.WriteString(strings.ReplaceAll(html.EscapeString(span.Text), "\n", "<br>"))
		for i := len(closes) - 1; i >= 0; i-- {
			sb.WriteString(closes[i])
		}
	}
}
