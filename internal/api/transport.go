package api

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"
)

// maxErrorBody bounds how much of an error response is buffered for logging
const maxErrorBody = 8 << 10

// TLSTransport adapts a tls-client HttpClient to net/http so the SDK can use it
type TLSTransport struct {
	client tls_client.HttpClient
}

// NewTLSTransport creates a transport with a Chrome TLS profile
func NewTLSTransport(timeout time.Duration) (*TLSTransport, error) {
	seconds := int(timeout / time.Second)
	if seconds <= 0 {
		seconds = 60
	}

	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(seconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithNotFollowRedirects(),
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, err
	}

	return &TLSTransport{client: client}, nil
}

// RoundTrip implements http.RoundTripper
func (t *TLSTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	freq, err := fhttp.NewRequestWithContext(req.Context(), req.Method, req.URL.String(), req.Body)
	if err != nil {
		return nil, err
	}
	freq.Header = fhttp.Header(req.Header.Clone())
	freq.ContentLength = req.ContentLength

	fresp, err := t.client.Do(freq)
	if err != nil {
		return nil, err
	}

	return &http.Response{
		Status:        fresp.Status,
		StatusCode:    fresp.StatusCode,
		Proto:         fresp.Proto,
		ProtoMajor:    fresp.ProtoMajor,
		ProtoMinor:    fresp.ProtoMinor,
		Header:        http.Header(fresp.Header),
		Body:          fresp.Body,
		ContentLength: fresp.ContentLength,
		Request:       req,
	}, nil
}

// InspectingTransport logs failed responses with the service error code
// and message. The body is restored for the SDK to parse.
type InspectingTransport struct {
	next http.RoundTripper
}

// NewInspectingTransport wraps next; a nil next uses http.DefaultTransport
func NewInspectingTransport(next http.RoundTripper) *InspectingTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &InspectingTransport{next: next}
}

// RoundTrip implements http.RoundTripper
func (t *InspectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		slog.DebugContext(req.Context(), "request failed",
			"method", req.Method, "path", req.URL.Path, "error", err)
		return nil, err
	}

	if resp.StatusCode < http.StatusBadRequest {
		slog.DebugContext(req.Context(), "request done",
			"method", req.Method, "path", req.URL.Path, "status", resp.StatusCode,
			"duration_ms", time.Since(start).Milliseconds())
		return resp, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	if readErr != nil {
		return resp, nil
	}

	slog.DebugContext(req.Context(), "service returned an error",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"code", errorField(string(body), "code"),
		"message", errorField(string(body), "message"),
		"retry_after", resp.Header.Get("Retry-After"),
		"request_id", gjson.GetBytes(body, "error.request_id").String(),
	)

	return resp, nil
}
