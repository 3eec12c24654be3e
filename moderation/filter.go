// Package moderation decides whether comment text may be shown and
// holds flagged comments for review.
package moderation

import (
	"log/slog"
	"unicode"

	"github.com/GiancarloEsposito06/Live-comments-overlay/errors"
	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Verdict is the outcome of classifying one comment body.
type Verdict struct {
	Flagged  bool
	Matches  []string // denylist hits in match order, normalized form
	Language string   // ISO 639-1 hint, empty when undecidable
}

// Filter matches comment text against a denylist using an Aho-Corasick
// automaton over a normalized rune stream, so spacing, punctuation and
// common leet substitutions do not defeat the list. The zero Filter
// fails closed: Classify errors and callers must treat the text as
// flagged.
type Filter struct {
	matcher    *goahocorasick.Machine
	censorRune rune
	log        *slog.Logger
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewFilter initializes the automaton with a normalized version of the
// provided denylist words. Entries that normalize to nothing (pure
// noise) are skipped.
func NewFilter(words []string, censorRune rune, log *slog.Logger) (Filter, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		p := normalizeRunes([]rune(word))
		if len(p) == 0 {
			continue
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		return Filter{}, errors.ErrEmptyWords
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Filter{}, err
	}
	log.Debug("content filter ready", "patterns", len(patterns))
	return Filter{matcher: m, censorRune: censorRune, log: log}, nil
}

// Classify reports whether the text hits the denylist. It inspects
// nothing but the text itself.
func (f *Filter) Classify(text string) (Verdict, error) {
	if f.matcher == nil {
		return Verdict{Flagged: true}, errors.ErrClassification
	}
	lang := detectLanguage(text)
	mapping := normalize(text)
	if len(mapping.normalized) == 0 {
		return Verdict{Language: lang}, nil
	}
	spans := f.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return Verdict{Language: lang}, nil
	}
	return Verdict{Flagged: true, Matches: wordsOf(spans), Language: lang}, nil
}

// detectLanguage guesses the body's language. A hint only; it never
// influences the verdict.
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}

// Censor replaces every denylist hit with the censor rune while
// preserving spacing, and returns the words that were struck.
func (f *Filter) Censor(original string) (string, []string) {
	if f.matcher == nil {
		return original, nil
	}
	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	spans := f.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)

		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}

		origStart := mapping.origIdx[normStart]
		lastCharOrigIdx := mapping.origIdx[normEnd-1]
		origEnd := lastCharOrigIdx + 1

		for i := origStart; i < origEnd; i++ {
			origRunes[i] = f.censorRune
		}
	}

	return string(origRunes), wordsOf(spans)
}

// normalize transforms the input string into a searchable format and
// tracks original rune positions.
func normalize(input string) textMapping {
	origRunes := []rune(input)
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))

	for i, r := range origRunes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	return textMapping{normalized: norm, origIdx: origIdx}
}

// normalizeRunes applies simplification and noise removal to a slice of runes.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common Leet speak characters back to their standard alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

// isNoise identifies characters that should be ignored during the pattern matching phase.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}

// wordsOf lists the matched patterns per occurrence, in match order.
func wordsOf(spans []*goahocorasick.Term) []string {
	return lo.Map(spans, func(span *goahocorasick.Term, _ int) string {
		return string(span.Word)
	})
}
