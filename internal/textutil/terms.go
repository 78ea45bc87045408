package textutil

import (
	"sort"
	"strings"

	"github.com/RadhiFadlillah/go-sastrawi"
	"github.com/abadojack/whatlanggo"
)

var (
	stemmer   = sastrawi.NewStemmer(sastrawi.DefaultDictionary())
	stopwords = sastrawi.DefaultStopword()
)

// Terms returns up to n stemmed Indonesian terms of text, most frequent first.
// Stopwords, numbers and tokens shorter than three letters are skipped.
func Terms(text string, n int) []string {
	if n <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	counts := make(map[string]int)
	for _, word := range sastrawi.Tokenize(text) {
		if len(word) < 3 || stopwords.Contains(word) || isNumeric(word) {
			continue
		}
		stem := stemmer.Stem(word)
		if len(stem) < 3 {
			continue
		}
		counts[stem]++
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// Language returns the detected language name in lowercase ("" when unknown)
func Language(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	return strings.ToLower(whatlanggo.LangToString(info.Lang))
}

// IsIndonesian reports whether text is detected as Indonesian
func IsIndonesian(text string) bool {
	return whatlanggo.Detect(text).Lang == whatlanggo.Ind
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
