package dynamic

import (
	"fmt"
	"regexp"

	"github.com/tidwall/gjson"

	coreerrors "github.com/bilichat/bili-parse-bot/internal/core/errors"
)

// initialStateRegex captures the JSON state blob embedded in the post's web
// page. The page carries the full feed item, but only the opus title is
// stable enough to trust here.
var initialStateRegex = regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});`)

// decodeHTMLPage extracts a title from the web page's embedded state. This is
// a title-only source: a hit is stashed by the orchestrator and the chain
// keeps walking for body and images.
func decodeHTMLPage(in DecodeInput) (*Partial, error) {
	m := initialStateRegex.FindSubmatch(in.Body)
	if m == nil {
		return nil, fmt.Errorf("%w: html page without state blob", coreerrors.ErrSchemaMismatch)
	}

	state := gjson.ParseBytes(m[1])

	title := state.Get("detail.modules.module_dynamic.major.opus.title").String()
	if title == "" {
		return nil, fmt.Errorf("%w: html state without opus title", coreerrors.ErrSchemaMismatch)
	}

	return &Partial{Title: title, TitleBearing: true}, nil
}
