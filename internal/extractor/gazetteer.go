package extractor

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
)

// Gazetteer is the ordered list of province subdivisions and their aliases
type Gazetteer struct {
	groups []KeywordGroup
}

// NewGazetteer folds every name and alias once
func NewGazetteer(groups []KeywordGroup) *Gazetteer {
	folded := foldGroups(groups)
	for i := range folded {
		folded[i].Name = textutil.Fold(folded[i].Name)
	}
	return &Gazetteer{groups: folded}
}

// Match returns the canonical name of the first entry found in folded text
func (g *Gazetteer) Match(folded string) (string, bool) {
	return firstGroup(folded, g.groups)
}

// Names returns the canonical names in gazetteer order
func (g *Gazetteer) Names() []string {
	names := make([]string, 0, len(g.groups))
	for _, group := range g.groups {
		names = append(names, group.Name)
	}
	return names
}

// Resolve maps a free-form region label from a price table ("KOTA BANDUNG",
// "Kab. Tasikmalaya", "Sumedng") to a canonical name. Exact alias hits win;
// otherwise the best Jaro-Winkler score at or above threshold is used.
func (g *Gazetteer) Resolve(label string, threshold float64) (string, bool) {
	folded := textutil.Fold(label)
	for _, prefix := range []string{"kota ", "kabupaten ", "kab. ", "kab "} {
		folded = strings.TrimPrefix(folded, prefix)
	}
	folded = strings.TrimSpace(folded)
	if folded == "" {
		return "", false
	}

	for _, group := range g.groups {
		if group.Name == folded {
			return group.Name, true
		}
		for _, kw := range group.Keywords {
			if kw == folded {
				return group.Name, true
			}
		}
	}

	best, bestScore := "", 0.0
	for _, group := range g.groups {
		score := matchr.JaroWinkler(folded, group.Name, false)
		if score > bestScore {
			best, bestScore = group.Name, score
		}
	}
	if bestScore >= threshold {
		return best, true
	}
	return "", false
}

func foldGroups(groups []KeywordGroup) []KeywordGroup {
	folded := make([]KeywordGroup, 0, len(groups))
	for _, g := range groups {
		keywords := make([]string, 0, len(g.Keywords))
		for _, kw := range g.Keywords {
			if f := textutil.Fold(kw); f != "" {
				keywords = append(keywords, f)
			}
		}
		folded = append(folded, KeywordGroup{Name: g.Name, Keywords: keywords})
	}
	return folded
}

// firstGroup returns the name of the first group with a keyword in text
func firstGroup(text string, groups []KeywordGroup) (string, bool) {
	for _, g := range groups {
		if anyKeyword(text, g.Keywords) {
			return g.Name, true
		}
	}
	return "", false
}

func anyKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		if textutil.ContainsWord(text, kw) {
			return true
		}
	}
	return false
}

// allGroups returns the names of every group with a keyword in text
func allGroups(text string, groups []KeywordGroup) []string {
	var names []string
	for _, g := range groups {
		if anyKeyword(text, g.Keywords) {
			names = append(names, g.Name)
		}
	}
	return names
}
