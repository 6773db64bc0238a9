// Package dynamic resolves a dynamic (post) identifier into one normalized
// record by walking an ordered chain of upstream sources. The same logical
// post is exposed through several historical response shapes; each shape has
// its own decoder, and the first decodable source wins.
package dynamic

import (
	"fmt"
	"time"
)

// Partial is one source's contribution to a normalized dynamic. Fields a
// source cannot supply stay zero; the orchestrator merges titles recovered
// elsewhere but never mixes images across sources.
type Partial struct {
	AuthorUID   string
	AuthorName  string
	Title       string
	Body        string
	Images      []string
	PublishedAt time.Time

	// TitleBearing marks post shapes (image, opus) that are expected to carry
	// a title. Plain-text posts never trigger title recovery.
	TitleBearing bool
}

// DecodeInput carries one raw source body plus request-scoped context into a
// decoder.
type DecodeInput struct {
	Body []byte

	// TitleHint is an optional caller-supplied title, e.g. from the referring
	// chat share payload. Only the legacy card heuristics consume it.
	TitleHint string
}

// DecodeFunc maps one raw body to a partial record or a schema mismatch.
type DecodeFunc func(in DecodeInput) (*Partial, error)

// Source describes one candidate endpoint: where to fetch and how to decode.
// The list is assembled at startup and never mutated afterwards.
type Source struct {
	Name   string
	URL    func(id string) string
	Decode DecodeFunc

	// TitleOnly sources can contribute a title but never body or images; a
	// success there does not terminate the chain.
	TitleOnly bool
}

// Source names, also used as config priority tokens and metric labels.
const (
	SourceFeedDetail    = "feed_detail"
	SourceOpusView      = "opus_view"
	SourceDynamicDetail = "dynamic_detail"
	SourceHTMLPage      = "html_page"
	SourceLegacyCard    = "legacy_card"
)

const (
	feedDetailURL    = "https://api.bilibili.com/x/polymer/web-dynamic/v1/detail?timezone_offset=-480&id=%s&features=itemOpusStyle"
	opusViewURL      = "https://api.bilibili.com/x/polymer/web-dynamic/v1/opus/detail?timezone_offset=-480&id=%s"
	dynamicDetailURL = "https://api.bilibili.com/x/dynamic/detail?dynamic_id=%s"
	legacyCardURL    = "https://api.vc.bilibili.com/dynamic_svr/v1/dynamic_svr/get_dynamic_detail?dynamic_id=%s"
	htmlPageURL      = "https://t.bilibili.com/%s"
)

// DefaultSources returns the source chain in default priority order. The HTML
// page sits before the legacy card so its recovered title can still outrank
// the card's free-text heuristics.
func DefaultSources() []Source {
	return []Source{
		{Name: SourceFeedDetail, URL: templateURL(feedDetailURL), Decode: decodeFeedDetail},
		{Name: SourceOpusView, URL: templateURL(opusViewURL), Decode: decodeOpusView},
		{Name: SourceDynamicDetail, URL: templateURL(dynamicDetailURL), Decode: decodeDynamicDetail},
		{Name: SourceHTMLPage, URL: templateURL(htmlPageURL), Decode: decodeHTMLPage, TitleOnly: true},
		{Name: SourceLegacyCard, URL: templateURL(legacyCardURL), Decode: decodeLegacyCard},
	}
}

// Reorder applies a configured priority list to the source chain. Unknown
// names are skipped; sources not named keep their relative default order at
// the end.
func Reorder(sources []Source, priority []string) []Source {
	if len(priority) == 0 {
		return sources
	}

	byName := make(map[string]Source, len(sources))
	for _, s := range sources {
		byName[s.Name] = s
	}

	ordered := make([]Source, 0, len(sources))
	taken := make(map[string]bool, len(sources))

	for _, name := range priority {
		s, ok := byName[name]
		if !ok || taken[name] {
			continue
		}

		ordered = append(ordered, s)
		taken[name] = true
	}

	for _, s := range sources {
		if !taken[s.Name] {
			ordered = append(ordered, s)
		}
	}

	return ordered
}

func templateURL(template string) func(id string) string {
	return func(id string) string {
		return fmt.Sprintf(template, id)
	}
}
