package dynamic

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
	"github.com/bilichat/bili-parse-bot/internal/core/fetch"
	"github.com/bilichat/bili-parse-bot/internal/platform/htmlutils"
	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

const defaultResolveTimeout = 25 * time.Second

// Resolver walks the source chain for one dynamic ID. Sources run strictly in
// order, one attempt each; the first full decode wins and later sources are
// never contacted.
type Resolver struct {
	fetcher   *fetch.Fetcher
	sources   []Source
	recoverer *Recoverer
	timeout   time.Duration
	logger    zerolog.Logger
}

// ResolveOptions carries request-scoped hints into a resolution.
type ResolveOptions struct {
	// TitleHint is the title embedded in the referring share payload, if any.
	TitleHint string
}

func NewResolver(
	fetcher *fetch.Fetcher,
	sources []Source,
	recoverer *Recoverer,
	timeout time.Duration,
	logger zerolog.Logger,
) *Resolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}

	return &Resolver{
		fetcher:   fetcher,
		sources:   sources,
		recoverer: recoverer,
		timeout:   timeout,
		logger:    logger.With().Str("component", "dynamic_resolver").Logger(),
	}
}

// Resolve produces one normalized dynamic record, or ErrExhausted when every
// source failed. A title-only hit with nothing else still yields a partial
// record rather than an error.
func (r *Resolver) Resolve(ctx context.Context, dynamicID string, opts ResolveOptions) (*domain.Dynamic, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	logger := r.logger.With().
		Str("trace_id", uuid.NewString()).
		Str("dynamic_id", dynamicID).
		Logger()

	in := DecodeInput{TitleHint: opts.TitleHint}

	// A title-only source's hit survives the rest of the walk and overrides
	// whatever title the winning source decoded.
	stashedTitle := ""

	for _, source := range r.sources {
		res := r.fetcher.Fetch(ctx, source.Name, source.URL(dynamicID))
		if !res.OK() {
			observability.SourceAttemptsTotal.WithLabelValues(source.Name, observability.OutcomeFetchFailed).Inc()
			logger.Debug().Str("source", source.Name).Stringer("status", res.Status).Msg("source fetch failed")

			continue
		}

		in.Body = res.Body

		partial, err := source.Decode(in)
		if err != nil {
			observability.SourceAttemptsTotal.WithLabelValues(source.Name, observability.OutcomeMismatch).Inc()
			logger.Debug().Str("source", source.Name).Err(err).Msg("source body did not decode")

			continue
		}

		if source.TitleOnly {
			observability.SourceAttemptsTotal.WithLabelValues(source.Name, observability.OutcomeTitleOnly).Inc()

			if stashedTitle == "" {
				stashedTitle = partial.Title
			}

			continue
		}

		observability.SourceAttemptsTotal.WithLabelValues(source.Name, observability.OutcomeDecoded).Inc()
		logger.Info().Str("source", source.Name).Msg("dynamic resolved")

		return r.finalize(ctx, dynamicID, partial, stashedTitle), nil
	}

	if stashedTitle != "" {
		observability.ResolutionsTotal.WithLabelValues("dynamic", "partial").Inc()
		logger.Info().Msg("all sources exhausted, keeping title-only record")

		return &domain.Dynamic{
			DynamicID:   dynamicID,
			Content:     stashedTitle,
			PublishedAt: time.Now(),
		}, nil
	}

	observability.ResolutionsTotal.WithLabelValues("dynamic", "exhausted").Inc()

	return nil, coreerrors.ErrExhausted
}

// finalize merges the winning partial with any stashed title, recovers a
// missing title for title-bearing posts, and flattens title and body into the
// record content.
func (r *Resolver) finalize(ctx context.Context, dynamicID string, p *Partial, stashedTitle string) *domain.Dynamic {
	title := p.Title
	if stashedTitle != "" {
		title = stashedTitle
	}

	if title == "" && p.TitleBearing && r.recoverer != nil {
		title = r.recoverer.RecoverTitle(ctx, dynamicID)
	}

	body := strings.TrimSpace(htmlutils.StripHTMLTags(p.Body))

	content := body
	if title != "" && body != "" {
		content = title + "\n" + body
	} else if title != "" {
		content = title
	}

	publishedAt := p.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now()
	}

	observability.ResolutionsTotal.WithLabelValues("dynamic", "success").Inc()

	return &domain.Dynamic{
		DynamicID:   dynamicID,
		AuthorUID:   p.AuthorUID,
		AuthorName:  p.AuthorName,
		Content:     content,
		Images:      p.Images,
		PublishedAt: publishedAt,
	}
}
