// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
)

// DynamicResolver resolves a post reference into one normalized record.
type DynamicResolver interface {
	Resolve(ctx context.Context, dynamicID string, titleHint string) (*domain.Dynamic, error)
}

// ArticleResolver resolves a read/cv reference into one normalized record.
type ArticleResolver interface {
	Resolve(ctx context.Context, cvid string) (*domain.Article, error)
}

// VideoResolver resolves a video reference into details and, separately, a
// direct stream URL for the given sub-stream.
type VideoResolver interface {
	Details(ctx context.Context, bvid string) (*domain.VideoDetails, error)
	StreamURL(ctx context.Context, bvid string, cid int64) (string, error)
}

// Downloader fetches a resolved stream into a local file and returns its
// path. Implementations own cleanup of failed partial downloads.
type Downloader interface {
	Download(ctx context.Context, streamURL, name string) (string, error)
}
