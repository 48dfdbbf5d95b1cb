// Package moderation censors forbidden words in outbound message content
// before fan-out. Matching is leet-speak and punctuation resistant: the
// input is normalized for the automaton while original rune positions are
// kept so only the offending characters get replaced.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
	log          *slog.Logger
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton from a normalized version
// of the forbidden word list. Built once at startup; Censor is read-only.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (Moderator, error) {
	patterns := make([][]rune, len(censoredWords))
	for i, word := range censoredWords {
		patterns[i] = normalizeRunes([]rune(word))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m, censoredChar: censoredChar, log: log}, nil
}

// Censor replaces every forbidden pattern with the replacement character,
// preserving spacing and punctuation, and returns the matched words.
func (m *Moderator) Censor(original string) (string, []string) {
	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	found := make([]string, 0, len(spans))
	for _, span := range spans {
		normStart := span.Pos
		normEnd := normStart + len(span.Word)
		if normStart < 0 || normEnd > len(mapping.origIdx) {
			continue
		}
		found = append(found, string(span.Word))

		origStart := mapping.origIdx[normStart]
		origEnd := mapping.origIdx[normEnd-1] + 1
		for i := origStart; i < origEnd; i++ {
			origRunes[i] = m.censoredChar
		}
	}

	return string(origRunes), found
}

// normalize produces the searchable form of the input and tracks where each
// kept rune sits in the original string.
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

// simplifyRune maps common leet speak characters back to their standard
// alphabet counterparts.
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

// isNoise identifies characters ignored during pattern matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
