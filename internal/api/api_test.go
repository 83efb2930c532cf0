package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"upfitter/showroom/internal/blocks"
	"upfitter/showroom/internal/cms"
	"upfitter/showroom/internal/common"
	"upfitter/showroom/internal/config"
	"upfitter/showroom/internal/preview"
	"upfitter/showroom/internal/schema"
)

type queryCall struct {
	Name   string
	Query  string
	Params map[string]any
}

// mockQuerier answers queries from queryFunc and records every call.
type mockQuerier struct {
	mu        sync.Mutex
	calls     []queryCall
	queryFunc func(name, query string, params map[string]any) (any, error)
}

func (m *mockQuerier) Query(_ context.Context, name, query string, params map[string]any, out any) error {
	m.mu.Lock()
	m.calls = append(m.calls, queryCall{Name: name, Query: query, Params: params})
	m.mu.Unlock()

	result, err := m.queryFunc(name, query, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (m *mockQuerier) lastCall() queryCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

func returning(result any) *mockQuerier {
	return &mockQuerier{queryFunc: func(string, string, map[string]any) (any, error) {
		return result, nil
	}}
}

func failing(err error) *mockQuerier {
	return &mockQuerier{queryFunc: func(string, string, map[string]any) (any, error) {
		return nil, err
	}}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    struct {
		Filters   map[string]any `json:"filters"`
		Count     int            `json:"count"`
		Total     int            `json:"total"`
		Limit     int            `json:"limit"`
		Offset    int            `json:"offset"`
		HasMore   bool           `json:"hasMore"`
		Timestamp time.Time      `json:"timestamp"`
	} `json:"meta"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func newTestHandlers(q cms.Querier) *Handlers {
	cfg := &config.Config{HTTP: config.HTTPConfig{ImageFormat: "webp"}}
	return NewHandlers(&Dependencies{
		Config:    cfg,
		Content:   q,
		Renderer:  blocks.NewRenderer(),
		Validator: schema.NewUniquenessValidator(q, nil),
		Signer:    preview.NewSigner([]byte("test-secret"), common.NewCacheService(time.Minute, 0)),
	})
}

func serve(t *testing.T, h http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func fordVehicles(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{
			"_id":          fmt.Sprintf("vehicle-%d", i),
			"title":        fmt.Sprintf("Transit %d", i),
			"sortOrder":    i,
			"manufacturer": map[string]any{"name": "Ford"},
		}
	}
	return out
}

func TestSearchVehicles_PaginatesFullResult(t *testing.T) {
	q := returning(fordVehicles(5))
	h := newTestHandlers(q)

	req := httptest.NewRequest(http.MethodGet, "/api/search?make=Ford&limit=2&offset=0", nil)
	rec, env := serve(t, h.SearchVehicles(), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var data []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data, 2)
	assert.Equal(t, "vehicle-0", data[0]["_id"])
	assert.Equal(t, 2, env.Meta.Count)
	assert.Equal(t, 5, env.Meta.Total)
	assert.Equal(t, 2, env.Meta.Limit)
	assert.Equal(t, 0, env.Meta.Offset)
	assert.True(t, env.Meta.HasMore)
	assert.Equal(t, "Ford", env.Meta.Filters["make"])
	assert.False(t, env.Meta.Timestamp.IsZero())

	call := q.lastCall()
	assert.Equal(t, "Ford", call.Params["make"])
	assert.Contains(t, call.Query, "order(sortOrder asc, title asc)")
}

func TestSearchVehicles_DefaultsAndQueryAlias(t *testing.T) {
	q := returning(fordVehicles(20))
	h := newTestHandlers(q)

	req := httptest.NewRequest(http.MethodGet, `/api/search?query=tra%22nsit`, nil)
	_, env := serve(t, h.SearchVehicles(), req)

	assert.Equal(t, SearchDefaultLimit, env.Meta.Limit)
	assert.Equal(t, SearchDefaultLimit, env.Meta.Count)
	assert.Contains(t, q.lastCall().Query, `match "transit*"`)
}

func TestSearchVehicles_OffsetPastEnd(t *testing.T) {
	h := newTestHandlers(returning(fordVehicles(3)))

	req := httptest.NewRequest(http.MethodGet, "/api/search?offset=10", nil)
	_, env := serve(t, h.SearchVehicles(), req)

	assert.True(t, env.Success)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, 0, env.Meta.Count)
	assert.Equal(t, 3, env.Meta.Total)
	assert.False(t, env.Meta.HasMore)
}

func TestListVehicles_DefaultLimit(t *testing.T) {
	q := returning(fordVehicles(30))
	h := newTestHandlers(q)

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles?type=cargo", nil)
	_, env := serve(t, h.ListVehicles(), req)

	assert.Equal(t, VehiclesDefaultLimit, env.Meta.Count)
	assert.True(t, env.Meta.HasMore)
	assert.Equal(t, "cargo", q.lastCall().Params["type"])
}

func TestListAdditionalOptions_DefaultLimit(t *testing.T) {
	q := returning(fordVehicles(60))
	h := newTestHandlers(q)

	req := httptest.NewRequest(http.MethodGet, "/api/additional-options?package=fleet", nil)
	_, env := serve(t, h.ListAdditionalOptions(), req)

	assert.Equal(t, OptionsDefaultLimit, env.Meta.Count)
	assert.Equal(t, 60, env.Meta.Total)
	assert.Equal(t, "fleet", q.lastCall().Params["package"])
	assert.Contains(t, q.lastCall().Query, "isActive == true")
}

func TestSingularLookups_MissingSlug(t *testing.T) {
	q := returning(nil)
	h := newTestHandlers(q)

	handlers := map[string]http.HandlerFunc{
		"/api/vehicle": h.GetVehicle(),
		"/api/brand":   h.GetBrand(),
		"/api/page":    h.GetPage(),
	}
	for path, handler := range handlers {
		t.Run(path, func(t *testing.T) {
			rec, env := serve(t, handler, httptest.NewRequest(http.MethodGet, path+"?slug=%20", nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
			assert.Equal(t, ErrMissingSlug.Error(), env.Message)
		})
	}
	assert.Empty(t, q.calls, "no query without a slug")
}

func TestGetVehicle_RemoteFailure(t *testing.T) {
	h := newTestHandlers(failing(&cms.Error{Code: cms.ErrCodeNetworkError, Message: "Unable to reach the content API"}))

	req := httptest.NewRequest(http.MethodGet, "/api/vehicle?slug=transit", nil)
	rec, env := serve(t, h.GetVehicle(), req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to fetch vehicle", env.Error)
	assert.Contains(t, env.Message, "Unable to reach the content API")
}

func TestGetVehicle_NotFoundIsNull(t *testing.T) {
	h := newTestHandlers(returning(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/vehicle?slug=missing", nil)
	rec, env := serve(t, h.GetVehicle(), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "null", string(env.Data))
}

func TestGetVehicle_RewritesImageURLs(t *testing.T) {
	h := newTestHandlers(returning(map[string]any{
		"title": "Transit",
		"mainImage": map[string]any{
			"asset": map[string]any{
				"_type": "sanity.imageAsset",
				"url":   "https://cdn.sanity.io/images/p/d/abc.jpg?w=800",
			},
		},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/vehicle?slug=transit", nil)
	_, env := serve(t, h.GetVehicle(), req)

	var data struct {
		MainImage struct {
			Asset struct {
				URL string `json:"url"`
			} `json:"asset"`
		} `json:"mainImage"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Contains(t, data.MainImage.Asset.URL, "fm=webp")
	assert.Contains(t, data.MainImage.Asset.URL, "w=800")
}

func pageFixture() map[string]any {
	return map[string]any{
		"_id":   "page-about",
		"title": "About",
		"pageBuilder": []any{
			map[string]any{
				"_key":            "a",
				"_type":           "textBlock",
				"title":           "Who we are",
				"contentType":     "markdown",
				"markdownContent": "**Built** to work",
				"htmlContent":     "<p>stale</p>",
			},
			map[string]any{
				"_key":             "b",
				"_type":            "textBlock",
				"contentType":      "plainText",
				"plainTextContent": "Call us",
			},
		},
	}
}

func TestGetPage_HTMLMode(t *testing.T) {
	h := newTestHandlers(returning(pageFixture()))

	req := httptest.NewRequest(http.MethodGet, "/api/page?slug=about", nil)
	_, env := serve(t, h.GetPage(), req)

	var page struct {
		HTML        string `json:"html"`
		PageBuilder []struct {
			HTML string `json:"html"`
		} `json:"pageBuilder"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.PageBuilder, 2)
	assert.Contains(t, page.PageBuilder[0].HTML, "<strong>Built</strong>")
	assert.NotContains(t, page.PageBuilder[0].HTML, "stale")
	assert.Contains(t, page.PageBuilder[1].HTML, "Call us")
	assert.Equal(t, page.PageBuilder[0].HTML+page.PageBuilder[1].HTML, page.HTML)
	assert.Equal(t, "html", env.Meta.Filters["content"])
}

func TestGetPage_RawMode(t *testing.T) {
	h := newTestHandlers(returning(pageFixture()))

	req := httptest.NewRequest(http.MethodGet, "/api/page?slug=about&content=raw", nil)
	_, env := serve(t, h.GetPage(), req)

	assert.NotContains(t, string(env.Data), `"html"`)
	assert.Contains(t, string(env.Data), "**Built** to work")
}

func TestGetContent_FansOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := &mockQuerier{queryFunc: func(name, _ string, _ map[string]any) (any, error) {
		return []map[string]any{{"_id": name}}, nil
	}}
	h := newTestHandlers(q)

	req := httptest.NewRequest(http.MethodGet, "/api/content?types=brands,vehicles,brands", nil)
	rec, env := serve(t, h.GetContent(), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"brands":[{"_id":"content-brands"}],"vehicles":[{"_id":"content-vehicles"}]}`, string(env.Data))
	assert.Len(t, q.calls, 2)
}

func TestGetContent_ActiveOnlyMatchesDedicatedRoutes(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := returning([]any{})
	h := newTestHandlers(q)

	rec, _ := serve(t, h.GetContent(), httptest.NewRequest(http.MethodGet, "/api/content?types=additionalOptions,salesReps,brands", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	queries := map[string]string{}
	for _, c := range q.calls {
		queries[c.Name] = c.Query
	}
	assert.Contains(t, queries["content-additionalOptions"], "(isActive == true)")
	assert.Contains(t, queries["content-salesReps"], "(isActive == true)")
	assert.NotContains(t, queries["content-brands"], "isActive")
}

func TestGetContent_DefaultTypes(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := returning([]any{})
	h := newTestHandlers(q)

	_, env := serve(t, h.GetContent(), httptest.NewRequest(http.MethodGet, "/api/content", nil))

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data, len(DefaultContentTypes))
	for _, name := range DefaultContentTypes {
		assert.JSONEq(t, `[]`, string(data[name]))
	}
}

func TestGetContent_OneFailureFailsRequest(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := &mockQuerier{queryFunc: func(name, _ string, _ map[string]any) (any, error) {
		if name == "content-manufacturers" {
			return nil, errors.New("boom")
		}
		return []any{}, nil
	}}
	h := newTestHandlers(q)

	rec, env := serve(t, h.GetContent(), httptest.NewRequest(http.MethodGet, "/api/content", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "manufacturers: boom")
}

func TestGetContent_UnknownType(t *testing.T) {
	q := returning([]any{})
	h := newTestHandlers(q)

	rec, env := serve(t, h.GetContent(), httptest.NewRequest(http.MethodGet, "/api/content?types=vehicles,secrets", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, env.Message, "secrets")
	assert.Empty(t, q.calls)
}

func TestDiscovery(t *testing.T) {
	h := newTestHandlers(returning(nil))

	_, env := serve(t, h.Discovery(), httptest.NewRequest(http.MethodGet, "/api/discovery", nil))

	var sources []DataSource
	require.NoError(t, json.Unmarshal(env.Data, &sources))
	assert.NotEmpty(t, sources)
	for _, s := range sources {
		assert.True(t, strings.HasPrefix(s.Path, "/api/"), s.Path)
	}
}

func TestValidateAdditionalOption(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		existing   any
		wantStatus int
		wantValid  bool
		wantField  string
	}{
		{
			name:       "unique",
			body:       `{"name":"Ladder Rack","slug":"ladder-rack","price":1295}`,
			existing:   []any{},
			wantStatus: http.StatusOK,
			wantValid:  true,
		},
		{
			name:       "duplicate name",
			body:       `{"name":"Ladder Rack","slug":"ladder-rack-2","price":1295}`,
			existing:   []any{map[string]any{"_id": "drafts.opt-9", "name": "ladder rack", "slug": "other"}},
			wantStatus: http.StatusOK,
			wantField:  "name",
		},
		{
			name:       "duplicate slug",
			body:       `{"_id":"opt-1","name":"Rack","slug":"ladder-rack","price":1}`,
			existing:   []any{map[string]any{"_id": "opt-9", "name": "Other", "slug": "Ladder-Rack"}},
			wantStatus: http.StatusOK,
			wantField:  "slug",
		},
		{
			name:       "negative price",
			body:       `{"name":"Rack","slug":"rack","price":-5}`,
			existing:   []any{},
			wantStatus: http.StatusOK,
			wantField:  "price",
		},
		{
			name:       "malformed body",
			body:       `{"name":`,
			existing:   []any{},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandlers(returning(tc.existing))

			req := httptest.NewRequest(http.MethodPost, "/api/validate/additional-option", strings.NewReader(tc.body))
			rec, env := serve(t, h.ValidateAdditionalOption(), req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus != http.StatusOK {
				assert.False(t, env.Success)
				return
			}

			var result ValidationResult
			require.NoError(t, json.Unmarshal(env.Data, &result))
			assert.Equal(t, tc.wantValid, result.Valid)
			if tc.wantField != "" {
				assert.Contains(t, result.Errors, tc.wantField)
			}
		})
	}
}

func TestPreview_EnterOnceThenExit(t *testing.T) {
	h := newTestHandlers(returning(nil))
	token, err := h.deps.Signer.Issue("editor@example.com", time.Hour)
	require.NoError(t, err)

	rec, env := serve(t, h.EnterPreview(), httptest.NewRequest(http.MethodGet, "/api/preview?token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, preview.CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec, env = serve(t, h.EnterPreview(), httptest.NewRequest(http.MethodGet, "/api/preview?token="+token, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, preview.ErrTokenUsed.Error(), env.Message)

	rec, _ = serve(t, h.ExitPreview(), httptest.NewRequest(http.MethodGet, "/api/preview/exit", nil))
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestPreview_DraftsQuerierUsed(t *testing.T) {
	published := returning(map[string]any{"title": "Published"})
	drafts := returning(map[string]any{"title": "Draft"})
	h := newTestHandlers(published)
	h.deps.Drafts = drafts

	req := httptest.NewRequest(http.MethodGet, "/api/vehicle?slug=transit", nil)
	req = req.WithContext(preview.WithToken(req.Context(), &preview.Token{Subject: "editor"}))
	_, env := serve(t, h.GetVehicle(), req)

	assert.JSONEq(t, `{"title":"Draft"}`, string(env.Data))
	assert.Empty(t, published.calls)
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

func TestHealthCheckHandler(t *testing.T) {
	deps := &Dependencies{
		Content:  returning(map[string]any{"_id": "siteSettings"}),
		Registry: mockPinger{err: errors.New("connection refused")},
	}

	rec := httptest.NewRecorder()
	HealthCheckHandler(deps, time.Now().Add(-time.Minute)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))

	var resp struct {
		Status   string `json:"status"`
		Services map[string]struct {
			Status string `json:"status"`
		} `json:"services"`
		Uptime string `json:"uptime"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "down", resp.Status)
	assert.Equal(t, "ok", resp.Services["cms"].Status)
	assert.Equal(t, "down", resp.Services["registry"].Status)
	assert.Equal(t, "1m0s", resp.Uptime)
}
