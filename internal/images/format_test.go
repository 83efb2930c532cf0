package images

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fixture = `{
	"_id": "vehicle-1",
	"title": "Transit Cargo",
	"url": "https://example.com/not-an-image?x=1",
	"mainImage": {
		"alt": "front",
		"asset": {"_id": "image-abc", "_type": "sanity.imageAsset", "url": "https://cdn.sanity.io/images/p1/production/abc-800x600.jpg"}
	},
	"gallery": [
		{"asset": {"_type": "sanity.imageAsset", "url": "https://cdn.sanity.io/images/p1/production/def-10x10.png?w=400&fm=jpg"}},
		{"asset": {"url": "https://cdn.sanity.io/images/p1/production/ghi-10x10.png"}},
		{"asset": null},
		"loose string",
		42
	],
	"specifications": {"engines": ["3.5L V6"], "towing": 7500}
}`

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

func TestRewriteFormat_RewritesOnlyAssets(t *testing.T) {
	in := decode(t, fixture)
	out := RewriteFormat(in, "webp").(map[string]any)

	if got := out["url"]; got != "https://example.com/not-an-image?x=1" {
		t.Errorf("non-asset url changed: %v", got)
	}

	main := out["mainImage"].(map[string]any)["asset"].(map[string]any)["url"].(string)
	if fm := queryParam(t, main, "fm"); len(fm) != 1 || fm[0] != "webp" {
		t.Errorf("main image fm = %v, want [webp]", fm)
	}

	gallery := out["gallery"].([]any)
	overridden := gallery[0].(map[string]any)["asset"].(map[string]any)["url"].(string)
	if fm := queryParam(t, overridden, "fm"); len(fm) != 1 || fm[0] != "webp" {
		t.Errorf("existing fm not overridden: %v", fm)
	}
	if w := queryParam(t, overridden, "w"); len(w) != 1 || w[0] != "400" {
		t.Errorf("other params must survive, got w=%v", w)
	}
	byCDN := gallery[1].(map[string]any)["asset"].(map[string]any)["url"].(string)
	if fm := queryParam(t, byCDN, "fm"); len(fm) != 1 {
		t.Errorf("cdn url without _type not rewritten: %s", byCDN)
	}
}

func TestRewriteFormat_StructureIsPreserved(t *testing.T) {
	in := decode(t, fixture)
	out := RewriteFormat(in, "avif")

	// Everything except url strings must compare equal.
	ignoreURLs := cmp.FilterPath(func(p cmp.Path) bool {
		if mi, ok := p.Last().(cmp.MapIndex); ok {
			return mi.Key().String() == "url"
		}
		return false
	}, cmp.Ignore())

	if diff := cmp.Diff(in, out, ignoreURLs); diff != "" {
		t.Errorf("structure changed (-in +out):\n%s", diff)
	}
}

func TestRewriteFormat_Idempotent(t *testing.T) {
	in := decode(t, fixture)
	once := RewriteFormat(in, "webp")
	twice := RewriteFormat(once, "webp")

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed output (-once +twice):\n%s", diff)
	}
}

func TestRewriteFormat_DoesNotMutateInput(t *testing.T) {
	in := decode(t, fixture)
	snapshot := decode(t, fixture)

	_ = RewriteFormat(in, "webp")

	if diff := cmp.Diff(snapshot, in); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestRewriteFormat_Scalars(t *testing.T) {
	for _, v := range []any{nil, "x", 1.5, true} {
		if got := RewriteFormat(v, "webp"); got != v {
			t.Errorf("RewriteFormat(%v) = %v", v, got)
		}
	}
}

func queryParam(t *testing.T, raw, key string) []string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u.Query()[key]
}
