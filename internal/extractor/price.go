package extractor

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var groupedThousands = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

type compiledPattern struct {
	name   string
	re     *regexp.Regexp
	weight int
}

// priceCandidate is one pattern match that survived normalization
type priceCandidate struct {
	value   int
	weight  int
	pattern string
	pos     int
}

// normalizePrice turns a matched token such as "12.000", "12 ribu" or
// "1,2 juta" into Rupiah. ok is false when the token is not a number or
// does not fit an int64; range checks are left to the price window.
func normalizePrice(raw string, multipliers []Multiplier) (int64, bool) {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return 0, false
	}

	factor := int64(1)
	for _, m := range multipliers {
		if m.Suffix != "" && strings.HasSuffix(s, m.Suffix) {
			factor = int64(m.Factor)
			s = strings.TrimSpace(strings.TrimSuffix(s, m.Suffix))
			break
		}
	}

	// grouped thousands and plain digits: drop the separators
	if factor == 1 || groupedThousands.MatchString(s) {
		digits := strings.NewReplacer(".", "", ",", "").Replace(s)
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		if factor > 1 && n > math.MaxInt64/factor {
			return 0, false
		}
		return n * factor, true
	}

	// "1,2 juta" / "1.2 juta": the separator is a decimal point
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || f < 0 {
		return 0, false
	}
	scaled := math.Round(f * float64(factor))
	if scaled >= math.MaxInt64 {
		return 0, false
	}
	return int64(scaled), true
}

// priceCandidates collects every plausible price of every pattern
func (e *Extractor) priceCandidates(text string) []priceCandidate {
	var candidates []priceCandidate

	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if len(loc) < 4 || loc[2] < 0 {
				continue
			}
			value, ok := normalizePrice(text[loc[2]:loc[3]], e.multipliers)
			if !ok || value < int64(e.priceMin) || value > int64(e.priceMax) {
				continue
			}
			candidates = append(candidates, priceCandidate{
				value:   int(value),
				weight:  p.weight,
				pattern: p.name,
				pos:     loc[0],
			})
		}
	}

	return candidates
}

// bestPrice picks the candidate of the most specific pattern, earliest first on ties
func bestPrice(candidates []priceCandidate) (priceCandidate, bool) {
	if len(candidates) == 0 {
		return priceCandidate{}, false
	}

	sorted := make([]priceCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].weight != sorted[j].weight {
			return sorted[i].weight > sorted[j].weight
		}
		return sorted[i].pos < sorted[j].pos
	})

	return sorted[0], true
}
