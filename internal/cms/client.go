package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"upfitter/showroom/internal/logging"
	"upfitter/showroom/internal/metrics"
)

// PerspectivePreviewDrafts overlays draft documents on published ones.
const PerspectivePreviewDrafts = "previewDrafts"

// Config identifies a dataset and how to reach it.
type Config struct {
	ProjectID   string
	Dataset     string
	APIVersion  string
	Token       string
	UseCDN      bool
	APIHost     string // e.g. an httptest server URL; overrides the derived host
	Perspective string
}

// Querier runs read queries. Handlers depend on this, not on *Client.
type Querier interface {
	Query(ctx context.Context, name, query string, params map[string]any, out any) error
}

// RawQuerier returns the undecoded result, used by the cache decorator.
type RawQuerier interface {
	QueryRaw(ctx context.Context, name, query string, params map[string]any) (json.RawMessage, error)
}

// Client talks to the hosted content API. It holds no package-level state;
// construct one per process (or per preview request) and pass it down.
type Client struct {
	cfg     Config
	client  *http.Client
	metrics *metrics.MetricsRegistry
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithMetrics(m *metrics.MetricsRegistry) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a content API client
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-01-01"
	}
	c := &Client{
		cfg:    cfg,
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client's configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// WithPerspective returns a copy of the client that reads with the given perspective.
// Drafts are never served from the CDN.
func (c *Client) WithPerspective(perspective string) *Client {
	cp := *c
	cp.cfg.Perspective = perspective
	cp.cfg.UseCDN = false
	return &cp
}

func (c *Client) baseURL(write bool) string {
	if c.cfg.APIHost != "" {
		return strings.TrimRight(c.cfg.APIHost, "/")
	}
	host := "api.sanity.io"
	// The CDN only serves anonymous reads.
	if c.cfg.UseCDN && !write && c.cfg.Token == "" {
		host = "apicdn.sanity.io"
	}
	return fmt.Sprintf("https://%s.%s", c.cfg.ProjectID, host)
}

func (c *Client) endpoint(kind string, write bool) string {
	return fmt.Sprintf("%s/v%s/data/%s/%s", c.baseURL(write), c.cfg.APIVersion, kind, url.PathEscape(c.cfg.Dataset))
}

// Query runs a GROQ query and decodes its result into out.
func (c *Client) Query(ctx context.Context, name, query string, params map[string]any, out any) error {
	raw, err := c.QueryRaw(ctx, name, query, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Code: ErrCodeDecodeError, Message: GetErrorMessage(ErrCodeDecodeError), Err: err}
	}
	return nil
}

// QueryRaw runs a GROQ query and returns the undecoded result field.
func (c *Client) QueryRaw(ctx context.Context, name, query string, params map[string]any) (json.RawMessage, error) {
	values := url.Values{}
	values.Set("query", query)
	for k, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode param %s: %w", k, err)
		}
		values.Set("$"+k, string(encoded))
	}
	if c.cfg.Perspective != "" {
		values.Set("perspective", c.cfg.Perspective)
	}

	reqURL := c.endpoint("query", false) + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	start := time.Now()
	body, err := c.do(req, false)
	c.observeQuery(name, start, err)
	if err != nil {
		logging.Warn("CMS query failed", "query_name", name, "error", err.Error())
		return nil, err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &Error{Code: ErrCodeDecodeError, Message: GetErrorMessage(ErrCodeDecodeError), Err: err}
	}
	if len(envelope.Result) == 0 {
		return json.RawMessage("null"), nil
	}
	return envelope.Result, nil
}

// Mutate commits the mutations as one transaction.
func (c *Client) Mutate(ctx context.Context, mutations []Mutation) (*MutationResult, error) {
	payload := map[string]any{"mutations": mutations}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mutations: %w", err)
	}

	values := url.Values{}
	values.Set("returnIds", "true")
	values.Set("visibility", "sync")
	values.Set("transactionId", uuid.NewString())

	reqURL := c.endpoint("mutate", true) + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	respBody, err := c.do(req, true)
	if c.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.metrics.CMSMutationsTotal.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		return nil, err
	}

	var result MutationResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &Error{Code: ErrCodeDecodeError, Message: GetErrorMessage(ErrCodeDecodeError), Err: err}
	}
	return &result, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}

func (c *Client) do(req *http.Request, mutation bool) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{
			Code:    ErrCodeNetworkError,
			Message: GetErrorMessage(ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Code: ErrCodeNetworkError, Message: GetErrorMessage(ErrCodeNetworkError), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errorFromStatus(resp.StatusCode, describe(body), mutation)
	}
	return body, nil
}

// describe pulls the description out of an API error body, falling back to the raw body.
func describe(body []byte) string {
	var apiErr struct {
		Error struct {
			Description string `json:"description"`
			Type        string `json:"type"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Error.Description != "" {
			return apiErr.Error.Description
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) observeQuery(name string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.CMSQueriesTotal.WithLabelValues(name, outcome).Inc()
	c.metrics.CMSQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
