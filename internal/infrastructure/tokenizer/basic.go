package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// basicTokenize splits text into words and punctuation the way BERT's basic
// tokenizer does before WordPiece runs.
func basicTokenize(text string, lowercase bool) []string {
	text = cleanText(text)
	text = spaceCJK(text)

	var out []string
	for _, word := range strings.Fields(text) {
		if lowercase {
			word = stripAccents(strings.ToLower(word))
		}
		out = append(out, splitOnPunctuation(word)...)
	}
	return out
}

// segment is a run of plain text or one special token typed in the input
type segment struct {
	text    string
	special bool
}

// splitSpecial cuts text around exact occurrences of the special tokens so
// they survive basic tokenization whole.
func splitSpecial(text string, specials []string) []segment {
	var out []segment
	for text != "" {
		at, token := -1, ""
		for _, sp := range specials {
			i := strings.Index(text, sp)
			if i < 0 {
				continue
			}
			if at < 0 || i < at || (i == at && len(sp) > len(token)) {
				at, token = i, sp
			}
		}
		if at < 0 {
			out = append(out, segment{text: text})
			break
		}
		if at > 0 {
			out = append(out, segment{text: text[:at]})
		}
		out = append(out, segment{text: token, special: true})
		text = text[at+len(token):]
	}
	return out
}

func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == unicode.ReplacementChar || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func spaceCJK(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isCJK(r) {
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripAccents(word string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, word)
	if err != nil {
		return word
	}
	return out
}

func splitOnPunctuation(word string) []string {
	var (
		out     []string
		current []rune
	)
	for _, r := range word {
		if isPunctuation(r) {
			if len(current) > 0 {
				out = append(out, string(current))
				current = current[:0]
			}
			out = append(out, string(r))
			continue
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		out = append(out, string(current))
	}
	return out
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// isControl matches every "C" category, unassigned code points (Cn) included
func isControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.Is(unicode.C, r) || isUnassigned(r)
}

func isUnassigned(r rune) bool {
	return !unicode.In(r, unicode.L, unicode.M, unicode.N, unicode.P, unicode.S, unicode.Z, unicode.C)
}

// ASCII symbols such as "$" and "^" count as punctuation too.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
