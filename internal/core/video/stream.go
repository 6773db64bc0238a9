package video

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
	"github.com/bilichat/bili-parse-bot/internal/core/fetch"
	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

const (
	playURLTemplate   = "https://api.bilibili.com/x/player/playurl?bvid=%s&cid=%d&qn=%d&fnval=0"
	thirdPartyURL     = "https://api.xingzhige.cn/API/b_parse/?url=https://www.bilibili.com/video/%s"
	defaultStreamQual = 64
)

// Stream strategy names, used as metric labels.
const (
	strategyNative     = "native"
	strategyThirdParty = "third_party"
)

// StreamResolver turns a video reference into a direct media URL. The native
// progressive endpoint is tried first; the third-party parse API is the
// fallback. Each strategy gets exactly one attempt.
type StreamResolver struct {
	fetcher *fetch.Fetcher
	quality int
	logger  zerolog.Logger

	playURLBase  func(bvid string, cid int64, quality int) string
	fallbackBase func(bvid string) string
}

func NewStreamResolver(fetcher *fetch.Fetcher, quality int, logger zerolog.Logger) *StreamResolver {
	if quality <= 0 {
		quality = defaultStreamQual
	}

	return &StreamResolver{
		fetcher: fetcher,
		quality: quality,
		logger:  logger.With().Str("component", "stream_resolver").Logger(),
		playURLBase: func(bvid string, cid int64, quality int) string {
			return fmt.Sprintf(playURLTemplate, bvid, cid, quality)
		},
		fallbackBase: func(bvid string) string {
			return fmt.Sprintf(thirdPartyURL, bvid)
		},
	}
}

// StreamURL resolves the direct media URL for one video, or ErrNoStreamURL
// when both strategies miss.
func (s *StreamResolver) StreamURL(ctx context.Context, bvid string, cid int64) (string, error) {
	if url := s.fromNative(ctx, bvid, cid); url != "" {
		observability.StreamResolutionsTotal.WithLabelValues(strategyNative, "hit").Inc()

		return url, nil
	}

	observability.StreamResolutionsTotal.WithLabelValues(strategyNative, "miss").Inc()

	if url := s.fromThirdParty(ctx, bvid); url != "" {
		observability.StreamResolutionsTotal.WithLabelValues(strategyThirdParty, "hit").Inc()

		return url, nil
	}

	observability.StreamResolutionsTotal.WithLabelValues(strategyThirdParty, "miss").Inc()
	s.logger.Warn().Str("bvid", bvid).Msg("no stream url from any strategy")

	return "", coreerrors.ErrNoStreamURL
}

// fromNative asks the player endpoint for a progressive stream and takes the
// first segment's URL. Segmented results beyond durl[0] are not stitched.
func (s *StreamResolver) fromNative(ctx context.Context, bvid string, cid int64) string {
	res := s.fetcher.Fetch(ctx, "playurl", s.playURLBase(bvid, cid, s.quality))
	if !res.OK() {
		return ""
	}

	doc := gjson.ParseBytes(res.Body)
	if doc.Get("code").Int() != 0 {
		return ""
	}

	return doc.Get("data.durl.0.url").String()
}

// fromThirdParty accepts the parse API's envelope only when it explicitly
// marks the payload as a video.
func (s *StreamResolver) fromThirdParty(ctx context.Context, bvid string) string {
	res := s.fetcher.Fetch(ctx, "third_party_parse", s.fallbackBase(bvid))
	if !res.OK() {
		return ""
	}

	doc := gjson.ParseBytes(res.Body)
	if doc.Get("code").Int() != 0 || doc.Get("msg").String() != "video" {
		return ""
	}

	return doc.Get("data.video.url").String()
}
