package dynamic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
	"github.com/bilichat/bili-parse-bot/internal/core/fetch"
)

const goodOpusBody = `{
	"code": 0,
	"data": {
		"opus": {"title": "专栏标题", "summary": "专栏正文", "pub_ts": 1690000000},
		"user": {"uid": 42, "name": "作者"}
	}
}`

// sourceStub wires one handler into the chain and counts how often it is hit.
type sourceStub struct {
	name      string
	titleOnly bool
	decode    DecodeFunc
	handler   http.HandlerFunc
	hits      atomic.Int64
}

func buildChain(t *testing.T, stubs []*sourceStub) []Source {
	t.Helper()

	mux := http.NewServeMux()
	for _, stub := range stubs {
		s := stub
		mux.HandleFunc("/"+s.name, func(w http.ResponseWriter, r *http.Request) {
			s.hits.Add(1)
			s.handler(w, r)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sources := make([]Source, 0, len(stubs))

	for _, stub := range stubs {
		s := stub
		sources = append(sources, Source{
			Name:      s.name,
			URL:       func(id string) string { return srv.URL + "/" + s.name + "?id=" + id },
			Decode:    s.decode,
			TitleOnly: s.titleOnly,
		})
	}

	return sources
}

func newTestResolver(t *testing.T, sources []Source) *Resolver {
	t.Helper()

	logger := zerolog.Nop()
	fetcher := fetch.New(2*time.Second, 100, "", &logger)

	return NewResolver(fetcher, sources, nil, 5*time.Second, logger)
}

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestResolve_FirstSuccessStopsChain(t *testing.T) {
	stubs := []*sourceStub{
		{name: "broken", decode: decodeFeedDetail, handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{name: "mismatched", decode: decodeOpusView, handler: respond(`{"code": -352}`)},
		{name: "winning", decode: decodeOpusView, handler: respond(goodOpusBody)},
		{name: "never", decode: decodeOpusView, handler: respond(goodOpusBody)},
	}

	r := newTestResolver(t, buildChain(t, stubs))

	d, err := r.Resolve(context.Background(), "712345678901234567", ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, "712345678901234567", d.DynamicID)
	require.Equal(t, "专栏标题\n专栏正文", d.Content)
	require.Equal(t, "42", d.AuthorUID)
	require.Equal(t, "作者", d.AuthorName)
	require.Equal(t, time.Unix(1690000000, 0), d.PublishedAt)

	require.EqualValues(t, 1, stubs[0].hits.Load())
	require.EqualValues(t, 1, stubs[1].hits.Load())
	require.EqualValues(t, 1, stubs[2].hits.Load())
	require.EqualValues(t, 0, stubs[3].hits.Load(), "sources after the first success must never be contacted")
}

func TestResolve_NoRetryPerSource(t *testing.T) {
	stubs := []*sourceStub{
		{name: "flaky", decode: decodeOpusView, handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{name: "winning", decode: decodeOpusView, handler: respond(goodOpusBody)},
	}

	r := newTestResolver(t, buildChain(t, stubs))

	_, err := r.Resolve(context.Background(), "1", ResolveOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 1, stubs[0].hits.Load(), "a failed source gets exactly one attempt")
}

func TestResolve_Exhausted(t *testing.T) {
	stubs := []*sourceStub{
		{name: "down", decode: decodeFeedDetail, handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{name: "garbage", decode: decodeOpusView, handler: respond(`<html>risk control</html>`)},
	}

	r := newTestResolver(t, buildChain(t, stubs))

	_, err := r.Resolve(context.Background(), "1", ResolveOptions{})
	require.ErrorIs(t, err, coreerrors.ErrExhausted)
}

func TestResolve_TitleOnlyOverridesLaterTitle(t *testing.T) {
	page := `<script>window.__INITIAL_STATE__ = {"detail":{"modules":{"module_dynamic":{"major":{"opus":{"title":"页面标题"}}}}}};</script>`

	stubs := []*sourceStub{
		{name: "page", titleOnly: true, decode: decodeHTMLPage, handler: respond(page)},
		{name: "winning", decode: decodeOpusView, handler: respond(goodOpusBody)},
	}

	r := newTestResolver(t, buildChain(t, stubs))

	d, err := r.Resolve(context.Background(), "1", ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, "页面标题\n专栏正文", d.Content)
	require.EqualValues(t, 1, stubs[1].hits.Load(), "a title-only hit must not stop the chain")
}

func TestResolve_TitleOnlyExhaustionYieldsPartial(t *testing.T) {
	page := `<script>window.__INITIAL_STATE__ = {"detail":{"modules":{"module_dynamic":{"major":{"opus":{"title":"仅有标题"}}}}}};</script>`

	stubs := []*sourceStub{
		{name: "page", titleOnly: true, decode: decodeHTMLPage, handler: respond(page)},
		{name: "down", decode: decodeOpusView, handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
	}

	r := newTestResolver(t, buildChain(t, stubs))

	d, err := r.Resolve(context.Background(), "99", ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, "仅有标题", d.Content)
	require.Equal(t, "99", d.DynamicID)
	require.False(t, d.PublishedAt.IsZero())
}

func TestResolve_BodyHTMLStripped(t *testing.T) {
	body := `{
		"code": 0,
		"data": {
			"opus": {"title": "标题", "summary": "正文有<br/>换行和 &amp; 符号", "pub_ts": 1}
		}
	}`

	stubs := []*sourceStub{
		{name: "winning", decode: decodeOpusView, handler: respond(body)},
	}

	r := newTestResolver(t, buildChain(t, stubs))

	d, err := r.Resolve(context.Background(), "1", ResolveOptions{})
	require.NoError(t, err)
	require.Equal(t, "标题\n正文有换行和 & 符号", d.Content)
}
