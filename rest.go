package goserdes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	registryContentType = "application/vnd.schemaregistry.v1+json"
	userAgent           = "goserdes/1"
)

var (
	defaultTransportOnce sync.Once
	defaultTransport      http.RoundTripper
)

// initDefaultTransport performs the one-time process-wide init of the HTTP
// stack used when a handle is not given its own client, mirroring the
// original library's idempotent curl_global_init guard.
func initDefaultTransport() {
	defaultTransportOnce.Do(func() {
		defaultTransport = http.DefaultTransport
	})
}

// restResponse is the outcome of one HTTP exchange. code < 0 means the
// request never reached a server (transport failure); code in [100,300)
// is success; anything else is a server-reported failure.
type restResponse struct {
	Code      int
	Body      []byte
	ErrString string
}

func (rr *restResponse) ok() bool {
	return rr.Code >= 100 && rr.Code < 300
}

func (rr *restResponse) failed() bool {
	return !rr.ok()
}

// strerror renders a human readable description of a failed response.
func (rr *restResponse) strerror() string {
	if rr.ErrString != "" {
		return fmt.Sprintf("REST request failed (code %d): %s", rr.Code, rr.ErrString)
	}
	return fmt.Sprintf("REST request failed (code %d): %s", rr.Code, string(rr.Body))
}

// restClient issues GET/POST calls against a urlRing with round-robin
// failover. It is owned by one Handle and never shared.
type restClient struct {
	ring    *urlRing
	client  *http.Client
	handle  *Handle
	timeout time.Duration
}

func newRESTClient(h *Handle, ring *urlRing, timeout time.Duration) *restClient {
	initDefaultTransport()
	return &restClient{
		ring:    ring,
		client:  &http.Client{Transport: defaultTransport, Timeout: timeout},
		handle:  h,
		timeout: timeout,
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

// get issues a GET against urlPath, trying each ring entry once until one
// of them completes the transport exchange (success or HTTP-level
// failure, it doesn't matter, a non-2xx is not a transport failure).
// Only exhaustion of the whole ring at the transport level leaves the
// returned response with a negative code.
func (c *restClient) get(ctx context.Context, urlPath string) *restResponse {
	return c.do(ctx, http.MethodGet, urlPath, nil)
}

// post issues a POST with body against urlPath.
func (c *restClient) post(ctx context.Context, urlPath string, body []byte) *restResponse {
	return c.do(ctx, http.MethodPost, urlPath, body)
}

func (c *restClient) do(ctx context.Context, method, urlPath string, body []byte) *restResponse {
	ctx, span := c.handle.startRegistrySpan(ctx, method, urlPath)
	defer span.End()

	start := time.Now()
	idx := c.ring.startIdx()
	n := c.ring.len()

	var rr *restResponse
	for i := 0; i < n; i++ {
		base := c.ring.at(idx)
		req, err := c.newRequest(ctx, method, joinURL(base, urlPath), body)
		if err != nil {
			rr = &restResponse{Code: -1, ErrString: fmt.Sprintf("failed to build request: %s", err)}
			idx = (idx + 1) % n
			continue
		}

		resp, err := c.client.Do(req)
		if err != nil {
			rr = &restResponse{Code: -1, ErrString: fmt.Sprintf("HTTP request failed: %s", err)}
			idx = (idx + 1) % n
			continue
		}

		payload, readErr := readResponseBody(resp)
		resp.Body.Close()
		if readErr != nil {
			rr = &restResponse{Code: -1, ErrString: fmt.Sprintf("failed to read response body: %s", readErr)}
			idx = (idx + 1) % n
			continue
		}

		rr = &restResponse{Code: resp.StatusCode, Body: payload}
		c.ring.setIdx(idx)
		c.recordOutcome(method, outcomeFor(rr), start)
		return rr
	}

	c.ring.setIdx(idx)
	c.recordOutcome(method, "transport-error", start)
	if rr == nil {
		rr = &restResponse{Code: -1, ErrString: "no registry endpoint configured"}
	}
	return rr
}

func outcomeFor(rr *restResponse) string {
	if rr.ok() {
		return "success"
	}
	return "http-error"
}

func (c *restClient) recordOutcome(method, outcome string, start time.Time) {
	m := c.handle.metrics
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, outcome).Inc()
	m.requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func (c *restClient) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", registryContentType)
	req.Header.Set("Content-Type", registryContentType)
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// readResponseBody treats an empty body as a distinct case rather than
// computing it twice, per the port's documented resolution of the
// original's double-read-on-empty-body quirk.
func readResponseBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength == 0 {
		return nil, nil
	}
	return io.ReadAll(resp.Body)
}
