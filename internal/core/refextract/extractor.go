// Package refextract turns arbitrary URLs and message text into canonical
// content references, resolving b23.tv short links through their redirect
// response.
package refextract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

const (
	// maxRedirectHops bounds short-link resolution. Chains deeper than this
	// fail closed instead of looping.
	maxRedirectHops = 5

	defaultTimeout = 8 * time.Second

	logKeyURL = "url"
)

var (
	urlRegex           = regexp.MustCompile(`https?://[^\s<>"{}|\\^\x60\[\]]+`)
	bvRegex            = regexp.MustCompile(`BV[0-9A-Za-z]+`)
	articleRegex       = regexp.MustCompile(`bilibili\.com/read/cv(\d+)`)
	articleMobileRegex = regexp.MustCompile(`bilibili\.com/read/mobile\?id=(\d+)`)
	timelineRegex      = regexp.MustCompile(`t\.bilibili\.com/(\d+)`)
	opusRegex          = regexp.MustCompile(`bilibili\.com/opus/(\d+)`)
)

type Extractor struct {
	client     *http.Client
	logger     *zerolog.Logger
	shortHosts map[string]bool
}

func New(timeout time.Duration, logger *zerolog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Extractor{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				// Redirects are read from the Location header, never followed.
				return http.ErrUseLastResponse
			},
		},
		logger:     logger,
		shortHosts: map[string]bool{"b23.tv": true, "www.b23.tv": true},
	}
}

// Resolve extracts the canonical content reference from text that may contain
// a short link, a video URL, an article URL, a timeline URL or an opus URL. A
// text with none of those yields ErrNotRecognized.
func (e *Extractor) Resolve(ctx context.Context, text string) (domain.ContentReference, error) {
	return e.resolve(ctx, text, 0)
}

func (e *Extractor) resolve(ctx context.Context, text string, hops int) (domain.ContentReference, error) {
	if short := e.findShortLink(text); short != "" {
		if hops >= maxRedirectHops {
			return domain.ContentReference{}, fmt.Errorf("%w: %d hops", coreerrors.ErrTooManyRedirects, hops)
		}

		location, err := e.redirectTarget(ctx, short)
		if err != nil {
			e.logger.Debug().Err(err).Str(logKeyURL, short).Msg("short link lookup failed")

			return domain.ContentReference{}, coreerrors.ErrNotRecognized
		}

		observability.RedirectHops.Observe(float64(hops + 1))

		return e.resolve(ctx, location, hops+1)
	}

	// Match order is load-bearing: a repost URL can carry both a BV id and a
	// dynamic id, and the video reference wins.
	if bv := bvRegex.FindString(text); bv != "" {
		return domain.ContentReference{Kind: domain.KindVideo, ID: bv}, nil
	}

	if m := articleRegex.FindStringSubmatch(text); m != nil {
		return domain.ContentReference{Kind: domain.KindArticle, ID: m[1]}, nil
	}

	if m := articleMobileRegex.FindStringSubmatch(text); m != nil {
		return domain.ContentReference{Kind: domain.KindArticle, ID: m[1]}, nil
	}

	if m := timelineRegex.FindStringSubmatch(text); m != nil {
		return domain.ContentReference{Kind: domain.KindDynamic, ID: m[1]}, nil
	}

	if m := opusRegex.FindStringSubmatch(text); m != nil {
		return domain.ContentReference{Kind: domain.KindDynamic, ID: m[1]}, nil
	}

	return domain.ContentReference{}, coreerrors.ErrNotRecognized
}

// findShortLink returns the first URL in text whose host is a known
// short-link host.
func (e *Extractor) findShortLink(text string) string {
	for _, match := range urlRegex.FindAllString(text, -1) {
		raw := strings.TrimRight(match, ".,;:!?)")

		u, err := url.Parse(raw)
		if err != nil {
			continue
		}

		if e.shortHosts[strings.ToLower(u.Host)] {
			return raw
		}
	}

	return ""
}

// redirectTarget issues a single no-follow request and returns the Location
// header of the redirect response.
func (e *Extractor) redirectTarget(ctx context.Context, shortURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, shortURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: no location header", coreerrors.ErrNotRecognized)
	}

	return location, nil
}
