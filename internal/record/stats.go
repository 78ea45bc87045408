package record

import (
	"math"
	"sort"
)

// PriceStats summarizes the prices of a set of records
type PriceStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	StdDev float64 `json:"std"`
}

// Summary is the statistics block of an export
type Summary struct {
	Total         int            `json:"total"`
	WithPrice     int            `json:"with_price"`
	WithLocation  int            `json:"with_location"`
	AvgConfidence float64        `json:"avg_confidence"`
	ByCommodity   map[string]int `json:"by_commodity"`
	ByLocation    map[string]int `json:"by_location"`
	BySource      map[string]int `json:"by_source"`
	ByCategory    map[string]int `json:"by_category"`
	Prices        *PriceStats    `json:"prices,omitempty"`
}

// Summarize computes the statistics of records
func Summarize(records []Record) Summary {
	s := Summary{
		Total:       len(records),
		ByCommodity: make(map[string]int),
		ByLocation:  make(map[string]int),
		BySource:    make(map[string]int),
		ByCategory:  make(map[string]int),
	}
	if len(records) == 0 {
		return s
	}

	var prices []int
	confidence := 0
	for _, r := range records {
		confidence += r.Confidence
		s.BySource[r.Source]++

		if r.Commodity != "" {
			s.ByCommodity[string(r.Commodity)]++
		}
		if r.Location != "" {
			s.WithLocation++
			s.ByLocation[r.Location]++
		}
		if r.PriceCategory != "" {
			s.ByCategory[r.PriceCategory]++
		}
		if r.HasPrice() {
			s.WithPrice++
			prices = append(prices, r.PriceValue())
		}
	}

	s.AvgConfidence = round2(float64(confidence) / float64(len(records)))
	s.Prices = priceStats(prices)

	return s
}

func priceStats(prices []int) *PriceStats {
	if len(prices) == 0 {
		return nil
	}

	sorted := append([]int(nil), prices...)
	sort.Ints(sorted)

	sum := 0
	for _, p := range sorted {
		sum += p
	}
	mean := float64(sum) / float64(len(sorted))

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		median = float64(sorted[mid])
	}

	// sample standard deviation, 0 for a single price
	var std float64
	if len(sorted) > 1 {
		var sq float64
		for _, p := range sorted {
			d := float64(p) - mean
			sq += d * d
		}
		std = math.Sqrt(sq / float64(len(sorted)-1))
	}

	return &PriceStats{
		Count:  len(sorted),
		Mean:   round2(mean),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		StdDev: round2(std),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SortedKeys returns the keys of counts ordered by descending count, then name
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
