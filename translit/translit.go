// Package translit converts text between a Cyrillic alphabet and Latin
// shell syntax. The engine is a single left-to-right pass over the rune
// sequence; per-language tables supply the mappings, including
// context-sensitive rules that inspect the neighbouring runes to
// disambiguate digraphs. The engine never fails: runes with no mapping
// (digits, symbols, text already in the target alphabet) pass through
// unchanged.
package translit

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Language selects one of the supported Cyrillic rule tables.
type Language int

const (
	LangRussian Language = iota
	LangUkrainian
)

// String returns the two-letter language code.
func (l Language) String() string {
	switch l {
	case LangUkrainian:
		return "uk"
	default:
		return "ru"
	}
}

// ParseLanguage resolves a language code given on the command line or in
// the configuration file.
func ParseLanguage(code string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "ru", "rus", "russian":
		return LangRussian, nil
	case "uk", "ua", "ukr", "ukrainian":
		return LangUkrainian, nil
	default:
		return LangRussian, fmt.Errorf("unsupported language code: %q", code)
	}
}

// Transliterator converts text in both directions. Both methods are
// total: they never fail, whatever the input.
type Transliterator interface {
	ToLatin(text string) string
	ToCyrillic(text string) string
	Language() Language
}

// New returns the transliterator for the given language.
func New(lang Language) (Transliterator, error) {
	switch lang {
	case LangRussian:
		return newRussian(), nil
	case LangUkrainian:
		return newUkrainian(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %d", lang)
	}
}

// ruleContext carries the bounded neighbourhood a contextual rule may
// inspect: at most the previous and the next rune. A zero rune means
// "no such character" (start or end of input).
type ruleContext struct {
	Prev      rune
	Next      rune
	WordStart bool
}

// ruleFn maps one source rune to its output. skip is the number of
// lookahead runes the rule consumed beyond the current one; the engine
// will not re-process them.
type ruleFn func(ctx ruleContext) (out string, skip int)

// digraph is a Latin sequence that collapses to a single Cyrillic rune.
// Sequences are matched longest-first and are at most two runes long.
type digraph struct {
	seq string
	out rune
}

// table is a per-language rule set. The engine below is shared; swapping
// language swaps only the table.
type table struct {
	lang Language

	// Cyrillic -> Latin
	simple map[rune]string
	rules  map[rune]ruleFn

	// Latin -> Cyrillic
	digraphs []digraph
	singles  map[rune]rune
}

func (t *table) Language() Language { return t.lang }

// ToLatin converts Cyrillic pseudo-syntax into Latin shell syntax.
func (t *table) ToLatin(text string) string {
	runes := []rune(norm.NFC.String(text))
	var b strings.Builder
	b.Grow(len(text))

	skip := 0
	for i, r := range runes {
		if skip > 0 {
			skip--
			continue
		}

		lower := unicode.ToLower(r)
		upper := r != lower

		if rule, ok := t.rules[lower]; ok {
			ctx := ruleContext{
				Prev:      lowerAt(runes, i-1),
				Next:      lowerAt(runes, i+1),
				WordStart: i == 0 || !unicode.IsLetter(runes[i-1]),
			}
			out, consumed := rule(ctx)
			skip = consumed
			b.WriteString(matchCase(out, upper))
			continue
		}

		if out, ok := t.simple[lower]; ok {
			b.WriteString(matchCase(out, upper))
			continue
		}

		b.WriteRune(r)
	}
	return b.String()
}

// ToCyrillic converts Latin shell output back to the Cyrillic alphabet
// for display. Digraphs are matched longest-first with the same
// skip-counter discipline as the forward direction.
func (t *table) ToCyrillic(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	skip := 0
	for i, r := range runes {
		if skip > 0 {
			skip--
			continue
		}

		lower := unicode.ToLower(r)
		upper := r != lower

		if out, consumed, ok := t.matchDigraph(runes, i); ok {
			skip = consumed
			b.WriteString(matchCase(string(out), upper))
			continue
		}

		if out, ok := t.singles[lower]; ok {
			b.WriteString(matchCase(string(out), upper))
			continue
		}

		b.WriteRune(r)
	}
	return b.String()
}

// matchDigraph tries the language's digraph list at position i,
// case-insensitively. Returns the Cyrillic rune and how many extra runes
// the match consumed.
func (t *table) matchDigraph(runes []rune, i int) (rune, int, bool) {
	for _, d := range t.digraphs {
		seq := []rune(d.seq)
		if i+len(seq) > len(runes) {
			continue
		}
		matched := true
		for j, want := range seq {
			if unicode.ToLower(runes[i+j]) != want {
				matched = false
				break
			}
		}
		if matched {
			return d.out, len(seq) - 1, true
		}
	}
	return 0, 0, false
}

// lowerAt returns the lower-cased rune at index i, or 0 when the index
// is out of range.
func lowerAt(runes []rune, i int) rune {
	if i < 0 || i >= len(runes) {
		return 0
	}
	return unicode.ToLower(runes[i])
}

// matchCase upper-cases the first rune of out when the source rune was
// upper-case.
func matchCase(out string, upper bool) string {
	if !upper || out == "" {
		return out
	}
	runes := []rune(out)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
