package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases text and strips combining marks so that "Kualitas Ií"
// and "kualitas ii" compare equal. Whitespace runs collapse to one space.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return CollapseSpaces(strings.ToLower(folded))
}

// CollapseSpaces trims s and replaces every whitespace run with a single space
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCase renders a gazetteer name for output, e.g. "bandung barat" -> "Bandung Barat"
func TitleCase(s string) string {
	return cases.Title(language.Indonesian).String(s)
}

// ContainsWord reports whether keyword occurs in text without being glued to
// surrounding letters. Both arguments are expected to be folded already.
// Keywords that start or end with a non-letter ("/kg", "#jabar", "a+") are
// only boundary-checked on their letter side.
func ContainsWord(text, keyword string) bool {
	if keyword == "" {
		return false
	}

	first, _ := utf8.DecodeRuneInString(keyword)
	last, _ := utf8.DecodeLastRuneInString(keyword)

	offset := 0
	for {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(keyword)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])

		leftOK := !unicode.IsLetter(first) || start == 0 || !unicode.IsLetter(before)
		rightOK := !unicode.IsLetter(last) || end == len(text) || !unicode.IsLetter(after)
		if leftOK && rightOK {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}
