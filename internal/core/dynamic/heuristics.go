package dynamic

import (
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// Free-text title recovery for legacy cards that carry no structured title.
// The rules run in order from most to least trustworthy; later rules are
// strictly weaker signals, so the order must not change.

const (
	firstLineTitleMinRunes = 5
	firstLineTitleMaxRunes = 100
	clauseTitleMinRunes    = 5
	clauseTitleMaxRunes    = 50
	truncatedTitleRunes    = 50
)

// titleGuess is one rule's output. An empty Title means the rule passes; a
// non-empty Body replaces the description as the record body.
type titleGuess struct {
	Title string
	Body  string

	// BodyFinal marks a rule that consumed the description while splitting
	// out the title. Its Body stands even when empty; a single-line
	// description must not repeat as both title and body.
	BodyFinal bool
}

// heuristicInput is everything the rules may look at. All rules are pure.
type heuristicInput struct {
	ExtendJSON  string
	Hint        string
	Description string
}

type titleRule func(in heuristicInput) titleGuess

var cardTitleRules = []titleRule{
	titleFromExtendJSON,
	titleFromHint,
	titleFromFirstLine,
	titleFromFirstClause,
	titleFromTruncation,
}

// guessCardTitle applies the rule chain, first non-empty title wins.
func guessCardTitle(in heuristicInput) titleGuess {
	for _, rule := range cardTitleRules {
		if g := rule(in); g.Title != "" {
			if g.Body == "" && !g.BodyFinal {
				g.Body = in.Description
			}

			return g
		}
	}

	return titleGuess{Body: in.Description}
}

// titleFromExtendJSON scans the card's extend_json payload for any title or
// text string field.
func titleFromExtendJSON(in heuristicInput) titleGuess {
	if in.ExtendJSON == "" || !gjson.Valid(in.ExtendJSON) {
		return titleGuess{}
	}

	return titleGuess{Title: findStringField(gjson.Parse(in.ExtendJSON), "title", "text")}
}

func findStringField(res gjson.Result, keys ...string) string {
	var found string

	res.ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.String && v.String() != "" {
			for _, key := range keys {
				if k.String() == key {
					found = v.String()
					return false
				}
			}
		}

		if v.IsObject() || v.IsArray() {
			if s := findStringField(v, keys...); s != "" {
				found = s
				return false
			}
		}

		return true
	})

	return found
}

// titleFromHint uses the title embedded in the referring share payload.
func titleFromHint(in heuristicInput) titleGuess {
	return titleGuess{Title: strings.TrimSpace(in.Hint)}
}

var terminalPunctuation = []string{"。", "！", "？", "…", "!", "?", "."}

// titleFromFirstLine promotes the first line to a title when it reads like
// one: 5 to 100 runes and no terminal punctuation. The remaining lines become
// the body.
func titleFromFirstLine(in heuristicInput) titleGuess {
	line, rest, _ := strings.Cut(in.Description, "\n")
	line = strings.TrimSpace(line)

	n := utf8.RuneCountInString(line)
	if n < firstLineTitleMinRunes || n > firstLineTitleMaxRunes {
		return titleGuess{}
	}

	for _, p := range terminalPunctuation {
		if strings.HasSuffix(line, p) {
			return titleGuess{}
		}
	}

	return titleGuess{Title: line, Body: strings.TrimSpace(rest), BodyFinal: true}
}

var clauseMarkers = []string{"http", "www.", "@", "#"}

// titleFromFirstClause splits on sentence punctuation and picks the first
// clause that is 5 to 50 runes with no URL, mention or hashtag markers.
func titleFromFirstClause(in heuristicInput) titleGuess {
	clauses := strings.FieldsFunc(in.Description, func(r rune) bool {
		switch r {
		case '。', '！', '？', '…', '!', '?', '.', ';', '；', '\n':
			return true
		default:
			return false
		}
	})

	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)

		n := utf8.RuneCountInString(clause)
		if n < clauseTitleMinRunes || n > clauseTitleMaxRunes {
			continue
		}

		if containsAny(clause, clauseMarkers) {
			continue
		}

		return titleGuess{Title: clause}
	}

	return titleGuess{}
}

// titleFromTruncation is the last resort: the first line cut to 50 runes with
// an ellipsis.
func titleFromTruncation(in heuristicInput) titleGuess {
	line, _, _ := strings.Cut(strings.TrimSpace(in.Description), "\n")
	if line == "" {
		return titleGuess{}
	}

	runes := []rune(line)
	if len(runes) > truncatedTitleRunes {
		return titleGuess{Title: string(runes[:truncatedTitleRunes]) + "…"}
	}

	return titleGuess{Title: line}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}

	return false
}
