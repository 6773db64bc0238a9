package refextract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
)

func newTestExtractor(t *testing.T, extraShortHosts ...string) *Extractor {
	t.Helper()

	logger := zerolog.Nop()
	e := New(time.Second, &logger)

	for _, h := range extraShortHosts {
		e.shortHosts[h] = true
	}

	return e
}

func TestResolve_Patterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.ContentReference
	}{
		{
			name: "bare BV id",
			text: "看这个 BV1xx411c7mD 好活",
			want: domain.ContentReference{Kind: domain.KindVideo, ID: "BV1xx411c7mD"},
		},
		{
			name: "long video url",
			text: "https://www.bilibili.com/video/BV1GJ411x7h7?p=1",
			want: domain.ContentReference{Kind: domain.KindVideo, ID: "BV1GJ411x7h7"},
		},
		{
			name: "timeline dynamic url",
			text: "https://t.bilibili.com/712345678901234567",
			want: domain.ContentReference{Kind: domain.KindDynamic, ID: "712345678901234567"},
		},
		{
			name: "opus url",
			text: "https://www.bilibili.com/opus/712345678901234567",
			want: domain.ContentReference{Kind: domain.KindDynamic, ID: "712345678901234567"},
		},
		{
			name: "article read url",
			text: "https://www.bilibili.com/read/cv12345678",
			want: domain.ContentReference{Kind: domain.KindArticle, ID: "12345678"},
		},
		{
			name: "article mobile url",
			text: "https://www.bilibili.com/read/mobile?id=12345678",
			want: domain.ContentReference{Kind: domain.KindArticle, ID: "12345678"},
		},
		{
			name: "video wins over dynamic id in repost url",
			text: "https://t.bilibili.com/700000000000000000 转发自 BV1GJ411x7h7",
			want: domain.ContentReference{Kind: domain.KindVideo, ID: "BV1GJ411x7h7"},
		},
	}

	e := newTestExtractor(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Resolve(context.Background(), tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NotRecognized(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.Resolve(context.Background(), "just some chat text https://example.com/page")
	require.ErrorIs(t, err, coreerrors.ErrNotRecognized)
}

// redirectChainServer redirects /hop/N to /hop/N+1 until depth is reached,
// then redirects to the final URL.
func redirectChainServer(t *testing.T, depth int, finalURL string) *httptest.Server {
	t.Helper()

	var srv *httptest.Server

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hop/")) //nolint:errcheck // test paths are numeric
		if n >= depth {
			w.Header().Set("Location", finalURL)
		} else {
			w.Header().Set("Location", fmt.Sprintf("%s/hop/%d", srv.URL, n+1))
		}

		w.WriteHeader(http.StatusFound)
	}))

	return srv
}

func TestResolve_ShortLinkChain(t *testing.T) {
	srv := redirectChainServer(t, 3, "https://www.bilibili.com/video/BV1GJ411x7h7")
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	e := newTestExtractor(t, u.Host)

	got, err := e.Resolve(context.Background(), "share "+srv.URL+"/hop/0")
	require.NoError(t, err)
	require.Equal(t, domain.ContentReference{Kind: domain.KindVideo, ID: "BV1GJ411x7h7"}, got)
}

func TestResolve_TooManyRedirects(t *testing.T) {
	srv := redirectChainServer(t, 50, "https://www.bilibili.com/video/BV1GJ411x7h7")
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	e := newTestExtractor(t, u.Host)

	_, err = e.Resolve(context.Background(), srv.URL+"/hop/0")
	require.ErrorIs(t, err, coreerrors.ErrTooManyRedirects)
}

func TestResolve_ShortLinkNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// No Location header at all.
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	e := newTestExtractor(t, u.Host)

	_, err = e.Resolve(context.Background(), srv.URL+"/whatever")
	require.ErrorIs(t, err, coreerrors.ErrNotRecognized)
}
