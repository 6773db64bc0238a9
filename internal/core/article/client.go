// Package article resolves read/cv references through the viewinfo endpoint
// into a normalized title/author/summary record.
package article

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bilichat/bili-parse-bot/internal/core/domain"
	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
	"github.com/bilichat/bili-parse-bot/internal/core/fetch"
	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

const viewInfoURL = "https://api.bilibili.com/x/article/viewinfo?id=%s&mobi_app=pc&from=web"

// Client resolves a cv identifier into normalized article details.
type Client struct {
	fetcher *fetch.Fetcher
	logger  zerolog.Logger

	viewInfoBase func(cvid string) string
}

func NewClient(fetcher *fetch.Fetcher, logger zerolog.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "article_client").Logger(),
		viewInfoBase: func(cvid string) string {
			return fmt.Sprintf(viewInfoURL, cvid)
		},
	}
}

type viewInfoResponse struct {
	Code int `json:"code"`
	Data struct {
		Title           string   `json:"title"`
		AuthorName      string   `json:"author_name"`
		Summary         string   `json:"summary"`
		Description     string   `json:"description"`
		BannerURL       string   `json:"banner_url"`
		OriginImageURLs []string `json:"origin_image_urls"`
	} `json:"data"`
}

// Resolve fetches and normalizes the viewinfo record for one article. The
// summary falls back to the description; the cover prefers the first origin
// image over the banner.
func (c *Client) Resolve(ctx context.Context, cvid string) (*domain.Article, error) {
	res := c.fetcher.Fetch(ctx, "article_viewinfo", c.viewInfoBase(cvid))
	if !res.OK() {
		observability.ResolutionsTotal.WithLabelValues("article", "unavailable").Inc()

		return nil, fmt.Errorf("%w: article viewinfo %s", coreerrors.ErrSourceUnavailable, res.Status)
	}

	var resp viewInfoResponse
	if err := json.Unmarshal(res.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: article viewinfo: %v", coreerrors.ErrSchemaMismatch, err)
	}

	if resp.Code != 0 || resp.Data.Title == "" {
		observability.ResolutionsTotal.WithLabelValues("article", "mismatch").Inc()

		return nil, fmt.Errorf("%w: article viewinfo code %d", coreerrors.ErrSchemaMismatch, resp.Code)
	}

	summary := strings.TrimSpace(resp.Data.Summary)
	if summary == "" {
		summary = strings.TrimSpace(resp.Data.Description)
	}

	cover := resp.Data.BannerURL
	if len(resp.Data.OriginImageURLs) > 0 && resp.Data.OriginImageURLs[0] != "" {
		cover = resp.Data.OriginImageURLs[0]
	}

	observability.ResolutionsTotal.WithLabelValues("article", "success").Inc()
	c.logger.Info().Str("cvid", cvid).Msg("article resolved")

	return &domain.Article{
		CVID:       cvid,
		Title:      resp.Data.Title,
		AuthorName: resp.Data.AuthorName,
		Summary:    summary,
		CoverURL:   cover,
	}, nil
}
