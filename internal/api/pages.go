package api

import (
	"net/http"
	"strings"

	"upfitter/showroom/internal/blocks"
	"upfitter/showroom/internal/groq"
)

// Page content modes.
const (
	ContentModeHTML = "html"
	ContentModeRaw  = "raw"
)

// GetPage handles GET /api/page?slug=&content=html|raw
//
// In html mode (the default) every page-builder block gains an "html" field
// and the page gains the concatenated "html" of all blocks. raw returns the
// stored blocks untouched.
func (h *Handlers) GetPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug, err := requireSlug(r)
		if err != nil {
			respondWithError(w, r, "Failed to fetch page", err)
			return
		}
		mode := ContentModeHTML
		if strings.EqualFold(r.URL.Query().Get("content"), ContentModeRaw) {
			mode = ContentModeRaw
		}

		var page map[string]any
		err = h.querier(r).Query(r.Context(), "page-by-slug", groq.PageBySlugQuery, map[string]any{"slug": slug}, &page)
		if err != nil {
			respondWithError(w, r, "Failed to fetch page", err)
			return
		}

		if page != nil && mode == ContentModeHTML {
			h.renderPage(page)
		}

		h.respondOne(w, page, map[string]string{"slug": slug, "content": mode})
	}
}

// renderPage annotates page and its pageBuilder entries with rendered html.
func (h *Handlers) renderPage(page map[string]any) {
	raw, _ := page["pageBuilder"].([]any)
	items := make([]map[string]any, 0, len(raw))
	decoded := make([]blocks.Block, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, m)
		decoded = append(decoded, blocks.DecodeBlock(m))
	}

	html, parts := h.deps.Renderer.RenderPage(decoded)
	for i, m := range items {
		m["html"] = parts[i]
	}
	page["html"] = html
}
