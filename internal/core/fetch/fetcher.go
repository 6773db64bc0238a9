// Package fetch performs single requests against upstream endpoints with the
// headers the platform expects from a browser. One call, one classified
// outcome; retries are the orchestrator's decision (and it never makes one).
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

const (
	// The upstream rejects default Go user agents; these values match what
	// the platform's own web client sends.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	platformReferer  = "https://www.bilibili.com/"

	defaultTimeout = 8 * time.Second
	limiterBurst   = 5

	maxBodySizeBytes = 5 * 1024 * 1024
)

// Status classifies one fetch attempt.
type Status int

const (
	StatusSuccess Status = iota
	StatusHTTPError
	StatusNetworkError
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusHTTPError:
		return "http_error"
	case StatusNetworkError:
		return "network_error"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Result is the raw outcome of one fetch attempt, scoped to that attempt.
type Result struct {
	Status   Status
	HTTPCode int
	Body     []byte
}

// OK reports whether the attempt produced a decodable body.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

type Fetcher struct {
	client        *http.Client
	limiter       *rate.Limiter
	sessionCookie string
	logger        *zerolog.Logger
}

// New builds a fetcher. sessionCookie is the optional SESSDATA credential;
// empty means unauthenticated, which some sources tolerate and others answer
// with a rejection body the decoders classify as a mismatch.
func New(timeout time.Duration, rps float64, sessionCookie string, logger *zerolog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if rps <= 0 {
		rps = 2
	}

	return &Fetcher{
		client:        &http.Client{Timeout: timeout},
		limiter:       rate.NewLimiter(rate.Limit(rps), limiterBurst),
		sessionCookie: sessionCookie,
		logger:        logger,
	}
}

// Fetch performs one GET against url. sourceName labels metrics only.
func (f *Fetcher) Fetch(ctx context.Context, sourceName, url string) Result {
	if err := f.limiter.Wait(ctx); err != nil {
		return Result{Status: StatusNetworkError}
	}

	start := time.Now()
	defer func() {
		observability.FetchDuration.WithLabelValues(sourceName).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Status: StatusNetworkError}
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", platformReferer)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	if f.sessionCookie != "" {
		req.Header.Set("Cookie", fmt.Sprintf("SESSDATA=%s", f.sessionCookie))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{Status: classifyTransportError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Debug().Str("source", sourceName).Int("status", resp.StatusCode).Msg("upstream returned non-2xx")

		return Result{Status: StatusHTTPError, HTTPCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySizeBytes))
	if err != nil {
		return Result{Status: classifyTransportError(err)}
	}

	return Result{Status: StatusSuccess, HTTPCode: resp.StatusCode, Body: body}
}

func classifyTransportError(err error) Status {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}

	return StatusNetworkError
}
