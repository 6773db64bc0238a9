package dynamic

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/bilichat/bili-parse-bot/internal/core/fetch"
	"github.com/bilichat/bili-parse-bot/internal/platform/observability"
)

// Recovery strategy names, used as metric labels.
const (
	recoveryOpusEndpoint = "opus_endpoint"
	recoveryHTMLScrape   = "html_scrape"
)

// Recoverer fills in a missing title for a title-bearing post after the main
// chain already produced body and images. Its strategies never replace body
// content and a total miss is not an error.
type Recoverer struct {
	fetcher *fetch.Fetcher
	logger  zerolog.Logger

	opusURL func(id string) string
	pageURL func(id string) string
}

func NewRecoverer(fetcher *fetch.Fetcher, logger zerolog.Logger) *Recoverer {
	return &Recoverer{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "title_recovery").Logger(),
		opusURL: templateURL(opusViewURL),
		pageURL: templateURL(htmlPageURL),
	}
}

// RecoverTitle tries each strategy in order and returns the first non-empty
// title, or "" when every strategy misses.
func (r *Recoverer) RecoverTitle(ctx context.Context, dynamicID string) string {
	strategies := []struct {
		name string
		run  func(ctx context.Context, dynamicID string) string
	}{
		{recoveryOpusEndpoint, r.fromOpusEndpoint},
		{recoveryHTMLScrape, r.fromPageScrape},
	}

	for _, strategy := range strategies {
		title := strategy.run(ctx, dynamicID)
		if title != "" {
			observability.TitleRecoveriesTotal.WithLabelValues(strategy.name, "hit").Inc()
			r.logger.Debug().Str("dynamic_id", dynamicID).Str("strategy", strategy.name).Msg("title recovered")

			return title
		}

		observability.TitleRecoveriesTotal.WithLabelValues(strategy.name, "miss").Inc()
	}

	return ""
}

func (r *Recoverer) fromOpusEndpoint(ctx context.Context, dynamicID string) string {
	res := r.fetcher.Fetch(ctx, recoveryOpusEndpoint, r.opusURL(dynamicID))
	if !res.OK() {
		return ""
	}

	doc := gjson.ParseBytes(res.Body)
	if doc.Get("code").Int() != 0 {
		return ""
	}

	return strings.TrimSpace(doc.Get("data.opus.title").String())
}

// fromPageScrape pulls a title out of the post's web page: og:title meta tag
// first, the <title> element as a fallback.
func (r *Recoverer) fromPageScrape(ctx context.Context, dynamicID string) string {
	res := r.fetcher.Fetch(ctx, recoveryHTMLScrape, r.pageURL(dynamicID))
	if !res.OK() {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(string(res.Body)))
	if err != nil {
		return ""
	}

	if title := findMetaTitle(doc); title != "" {
		return title
	}

	return findTitleElement(doc)
}

func findMetaTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var property, content string

		for _, attr := range n.Attr {
			switch attr.Key {
			case "property", "name":
				property = attr.Val
			case "content":
				content = attr.Val
			}
		}

		if (property == "og:title" || property == "title") && content != "" {
			return strings.TrimSpace(content)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findMetaTitle(c); title != "" {
			return title
		}
	}

	return ""
}

func findTitleElement(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitleElement(c); title != "" {
			return title
		}
	}

	return ""
}
