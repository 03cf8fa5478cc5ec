package goserdes

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	gtassert "gotest.tools/v3/assert"
)

// deadListener accepts and immediately closes every connection, so a
// client dialing it always observes a transport-level failure rather than
// a well-formed HTTP response.
func deadListener(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return "http://" + ln.Addr().String()
}

func TestRESTRingFailoverPinsCursorOnSuccess(t *testing.T) {
	var hits atomic.Int32
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", registryContentType)
		w.WriteHeader(200)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer good.Close()

	bad := deadListener(t)

	ring, err := parseURLs(bad+","+good.URL+",http://unused.invalid", true)
	require.NoError(t, err)

	h := &Handle{metrics: newMetrics(nil)}
	client := newRESTClient(h, ring, 0)

	rr := client.get(context.Background(), "/schemas/ids/1")
	gtassert.Equal(t, rr.Code, 200)
	gtassert.Equal(t, int(hits.Load()), 1)
	gtassert.Equal(t, ring.startIdx(), 1)

	rr2 := client.get(context.Background(), "/schemas/ids/1")
	gtassert.Equal(t, rr2.Code, 200)
	gtassert.Equal(t, int(hits.Load()), 2)
	gtassert.Equal(t, ring.startIdx(), 1)
}

func TestRESTRingExhaustionReturnsNegativeCode(t *testing.T) {
	bad1 := deadListener(t)
	bad2 := deadListener(t)

	ring, err := parseURLs(bad1+","+bad2, true)
	require.NoError(t, err)

	h := &Handle{metrics: newMetrics(nil)}
	client := newRESTClient(h, ring, 0)

	rr := client.get(context.Background(), "/schemas/ids/1")
	gtassert.Equal(t, rr.Code < 0, true)
}
