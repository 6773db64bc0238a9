package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(timeout time.Duration, cookie string) *Fetcher {
	logger := zerolog.Nop()
	return New(timeout, 100, cookie, &logger)
}

func TestFetch_HeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		require.Equal(t, "https://www.bilibili.com/", r.Header.Get("Referer"))
		require.Equal(t, "SESSDATA=secret", r.Header.Get("Cookie"))

		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	res := newTestFetcher(time.Second, "secret").Fetch(context.Background(), "test", srv.URL)

	require.True(t, res.OK())
	require.Equal(t, []byte(`{"code":0}`), res.Body)
}

func TestFetch_NoCookieHeaderWhenUnconfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Cookie"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := newTestFetcher(time.Second, "").Fetch(context.Background(), "test", srv.URL)
	require.True(t, res.OK())
}

func TestFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	}))
	defer srv.Close()

	res := newTestFetcher(time.Second, "").Fetch(context.Background(), "test", srv.URL)

	require.Equal(t, StatusHTTPError, res.Status)
	require.Equal(t, http.StatusPreconditionFailed, res.HTTPCode)
	require.False(t, res.OK())
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := newTestFetcher(50*time.Millisecond, "").Fetch(context.Background(), "test", srv.URL)
	require.Equal(t, StatusTimeout, res.Status)
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // connection refused

	res := newTestFetcher(time.Second, "").Fetch(context.Background(), "test", srv.URL)
	require.NotEqual(t, StatusSuccess, res.Status)
}
