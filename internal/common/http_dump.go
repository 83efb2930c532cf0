package common

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"

	"upfitter/showroom/internal/logging"
)

// DumpTransport logs every outbound request at debug level, with the
// Authorization header redacted.
type DumpTransport struct {
	Base http.RoundTripper
}

func (t *DumpTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	LogHTTPRequest(req)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		logging.Debug("HTTP request failed", "url", req.URL.Redacted(), "error", err.Error())
		return nil, err
	}
	logging.Debug("HTTP response", "url", req.URL.Redacted(), "status", resp.StatusCode)
	return resp, nil
}

// LogHTTPRequest dumps req, body included. The body stays readable.
func LogHTTPRequest(req *http.Request) {
	// Make a copy of the body if it exists
	var bodyCopy []byte
	if req.Body != nil {
		bodyCopy, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(bodyCopy)) // reset body
	}

	out := req.Clone(req.Context())
	if out.Header.Get("Authorization") != "" {
		out.Header.Set("Authorization", "Bearer [redacted]")
	}
	if bodyCopy != nil {
		out.Body = io.NopCloser(bytes.NewReader(bodyCopy))
	}

	dump, err := httputil.DumpRequestOut(out, true) // true to include body
	if err != nil {
		logging.Debug("Failed to dump HTTP request", "error", err.Error())
	} else {
		logging.Debug("HTTP request dump", "dump", string(dump))
	}

	// Reset the body again (req.Body may be read again later)
	if bodyCopy != nil {
		req.Body = io.NopCloser(bytes.NewReader(bodyCopy))
	}
}
