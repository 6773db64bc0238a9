// Package video resolves video references: the view endpoint for metadata and
// a two-strategy stream resolver for direct playback URLs.
package video

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
	"github.com/bilichat/bili-parse-bot/internal/core/fetch"
	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

const viewURL = "https://api.bilibili.com/x/web-interface/view?bvid=%s"

// Client resolves a BV identifier into normalized video details.
type Client struct {
	fetcher *fetch.Fetcher
	logger  zerolog.Logger

	viewBase func(bvid string) string
}

func NewClient(fetcher *fetch.Fetcher, logger zerolog.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "video_client").Logger(),
		viewBase: func(bvid string) string {
			return fmt.Sprintf(viewURL, bvid)
		},
	}
}

type viewResponse struct {
	Code int `json:"code"`
	Data struct {
		BVID     string `json:"bvid"`
		Title    string `json:"title"`
		Desc     string `json:"desc"`
		Pic      string `json:"pic"`
		Duration int    `json:"duration"`
		CID      int64  `json:"cid"`
		Owner    struct {
			Mid  int64  `json:"mid"`
			Name string `json:"name"`
		} `json:"owner"`
		Stat struct {
			View     int64 `json:"view"`
			Danmaku  int64 `json:"danmaku"`
			Reply    int64 `json:"reply"`
			Favorite int64 `json:"favorite"`
			Coin     int64 `json:"coin"`
			Share    int64 `json:"share"`
			Like     int64 `json:"like"`
		} `json:"stat"`
	} `json:"data"`
}

// Details fetches and normalizes the view record for one video.
func (c *Client) Details(ctx context.Context, bvid string) (*domain.VideoDetails, error) {
	res := c.fetcher.Fetch(ctx, "video_view", c.viewBase(bvid))
	if !res.OK() {
		observability.ResolutionsTotal.WithLabelValues("video", "unavailable").Inc()

		return nil, fmt.Errorf("%w: video view %s", coreerrors.ErrSourceUnavailable, res.Status)
	}

	var resp viewResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: video view: %v", coreerrors.ErrSchemaMismatch, err)
	}

	if resp.Code != 0 || resp.Data.BVID == "" {
		observability.ResolutionsTotal.WithLabelValues("video", "mismatch").Inc()

		return nil, fmt.Errorf("%w: video view code %d", coreerrors.ErrSchemaMismatch, resp.Code)
	}

	observability.ResolutionsTotal.WithLabelValues("video", "success").Inc()
	c.logger.Info().Str("bvid", resp.Data.BVID).Msg("video resolved")

	return &domain.VideoDetails{
		BVID:            resp.Data.BVID,
		Title:           resp.Data.Title,
		Description:     resp.Data.Desc,
		OwnerName:       resp.Data.Owner.Name,
		CoverURL:        resp.Data.Pic,
		DurationSeconds: resp.Data.Duration,
		CID:             resp.Data.CID,
		Stats: domain.VideoStats{
			Views:     resp.Data.Stat.View,
			Danmaku:   resp.Data.Stat.Danmaku,
			Replies:   resp.Data.Stat.Reply,
			Favorites: resp.Data.Stat.Favorite,
			Coins:     resp.Data.Stat.Coin,
			Shares:    resp.Data.Stat.Share,
			Likes:     resp.Data.Stat.Like,
		},
	}, nil
}
