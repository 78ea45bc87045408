package extractor

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// evaluator inspects folded text (and optional engagement) and reports one signal
type evaluator func(folded string, eng *Engagement) (Signal, bool)

// Extractor turns free text into a Fact. It holds only data compiled from
// its Config and is safe for concurrent use.
type Extractor struct {
	commodities  []KeywordGroup
	units        []KeywordGroup
	qualities    []KeywordGroup
	gazetteer    *Gazetteer
	province     []string
	patterns     []compiledPattern
	multipliers  []Multiplier
	increments   Increments
	priceMin     int
	priceMax     int
	tiers        []EngagementTier
	defaultUnit  Unit
	evaluators   []evaluator
	categories   []KeywordGroup
	producer     []string
	varieties    []KeywordGroup
	subdistricts []string
}

// NewExtractor compiles cfg into an Extractor
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.PriceMin > cfg.PriceMax {
		return nil, errors.NewConfiguration(
			fmt.Sprintf("price window is inverted: min %d > max %d", cfg.PriceMin, cfg.PriceMax), nil)
	}

	patterns := make([]compiledPattern, 0, len(cfg.PricePatterns))
	for _, p := range cfg.PricePatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, errors.NewConfiguration(fmt.Sprintf("price pattern %q does not compile", p.Name), err)
		}
		if re.NumSubexp() < 1 {
			return nil, errors.NewConfiguration(fmt.Sprintf("price pattern %q has no capture group", p.Name), nil)
		}
		patterns = append(patterns, compiledPattern{name: p.Name, re: re, weight: p.Weight})
	}

	multipliers := append([]Multiplier(nil), cfg.Multipliers...)
	for i := range multipliers {
		multipliers[i].Suffix = textutil.Fold(multipliers[i].Suffix)
	}
	// longest suffix first so "ribu" is not read as a shorter suffix
	sort.SliceStable(multipliers, func(i, j int) bool {
		return len(multipliers[i].Suffix) > len(multipliers[j].Suffix)
	})

	tiers := append([]EngagementTier(nil), cfg.EngagementTiers...)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Above > tiers[j].Above })

	province := make([]string, 0, len(cfg.Province))
	for _, p := range cfg.Province {
		if f := textutil.Fold(p); f != "" {
			province = append(province, f)
		}
	}

	producer := make([]string, 0, len(cfg.ProducerContext))
	for _, p := range cfg.ProducerContext {
		producer = append(producer, textutil.Fold(p))
	}

	subdistricts := make([]string, 0, len(cfg.Subdistricts))
	for _, s := range cfg.Subdistricts {
		subdistricts = append(subdistricts, textutil.Fold(s))
	}

	defaultUnit := cfg.DefaultUnit
	if defaultUnit == "" {
		defaultUnit = UnitKg
	}

	e := &Extractor{
		commodities:  foldGroups(cfg.Commodities),
		units:        foldGroups(cfg.Units),
		qualities:    foldGroups(cfg.Qualities),
		gazetteer:    NewGazetteer(cfg.Gazetteer),
		province:     province,
		patterns:     patterns,
		multipliers:  multipliers,
		increments:   cfg.Increments,
		priceMin:     cfg.PriceMin,
		priceMax:     cfg.PriceMax,
		tiers:        tiers,
		defaultUnit:  defaultUnit,
		categories:   foldGroups(cfg.PriceCategories),
		producer:     producer,
		varieties:    foldGroups(cfg.Varieties),
		subdistricts: subdistricts,
	}

	e.evaluators = []evaluator{
		e.commoditySignal,
		e.priceSignal,
		e.unitSignal,
		e.qualitySignal,
		e.locationSignal,
		e.provinceSignal,
		e.engagementSignal,
	}

	return e, nil
}

// MustNewExtractor is NewExtractor for configurations known to be valid
func MustNewExtractor(cfg Config) *Extractor {
	e, err := NewExtractor(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

// Gazetteer returns the extractor's gazetteer
func (e *Extractor) Gazetteer() *Gazetteer {
	return e.gazetteer
}

// Extract infers a Fact from text
func (e *Extractor) Extract(text string) Fact {
	return e.ExtractWithEngagement(text, nil)
}

// ExtractWithEngagement infers a Fact from text, adding the engagement bonus
// when eng is not nil
func (e *Extractor) ExtractWithEngagement(text string, eng *Engagement) Fact {
	fact := Fact{Unit: e.defaultUnit}

	total := 0
	for _, s := range e.Evaluate(text, eng) {
		fact.apply(s)
		total += s.Increment
	}
	fact.Confidence = min(total, MaxConfidence)

	return fact
}

// Evaluate runs every evaluator and returns the signals that fired, in
// evaluation order
func (e *Extractor) Evaluate(text string, eng *Engagement) []Signal {
	folded := textutil.Fold(text)
	if folded == "" {
		return nil
	}

	var signals []Signal
	for _, ev := range e.evaluators {
		if s, ok := ev(folded, eng); ok {
			signals = append(signals, s)
		}
	}
	return signals
}

func (f *Fact) apply(s Signal) {
	switch s.Field {
	case FieldCommodity:
		f.Commodity = Commodity(s.Value)
	case FieldPrice:
		price := s.Price
		f.Price = &price
	case FieldUnit:
		f.Unit = Unit(s.Value)
	case FieldQuality:
		f.Quality = Quality(s.Value)
	case FieldLocation:
		f.Location = s.Value
	}
}

func (e *Extractor) commoditySignal(folded string, _ *Engagement) (Signal, bool) {
	name, ok := firstGroup(folded, e.commodities)
	if !ok {
		return Signal{}, false
	}
	return Signal{Field: FieldCommodity, Value: name, Increment: e.increments.Commodity}, true
}

func (e *Extractor) priceSignal(folded string, _ *Engagement) (Signal, bool) {
	best, ok := bestPrice(e.priceCandidates(folded))
	if !ok {
		return Signal{}, false
	}
	return Signal{
		Field:     FieldPrice,
		Value:     strconv.Itoa(best.value),
		Price:     best.value,
		Pattern:   best.pattern,
		Increment: best.weight,
	}, true
}

func (e *Extractor) unitSignal(folded string, _ *Engagement) (Signal, bool) {
	name, ok := firstGroup(folded, e.units)
	if !ok {
		return Signal{}, false
	}
	return Signal{Field: FieldUnit, Value: name, Increment: e.increments.Unit}, true
}

func (e *Extractor) qualitySignal(folded string, _ *Engagement) (Signal, bool) {
	name, ok := firstGroup(folded, e.qualities)
	if !ok {
		return Signal{}, false
	}
	return Signal{Field: FieldQuality, Value: name, Increment: e.increments.Quality}, true
}

func (e *Extractor) locationSignal(folded string, _ *Engagement) (Signal, bool) {
	name, ok := e.gazetteer.Match(folded)
	if !ok {
		return Signal{}, false
	}
	return Signal{Field: FieldLocation, Value: textutil.TitleCase(name), Increment: e.increments.Location}, true
}

func (e *Extractor) provinceSignal(folded string, _ *Engagement) (Signal, bool) {
	for _, p := range e.province {
		if textutil.ContainsWord(folded, p) {
			return Signal{Field: FieldProvince, Value: p, Increment: e.increments.Province}, true
		}
	}
	return Signal{}, false
}

func (e *Extractor) engagementSignal(_ string, eng *Engagement) (Signal, bool) {
	if eng == nil {
		return Signal{}, false
	}
	total := eng.Total()
	for _, tier := range e.tiers {
		if total > tier.Above {
			return Signal{
				Field:     FieldEngagement,
				Value:     strconv.Itoa(total),
				Increment: tier.Bonus,
			}, true
		}
	}
	return Signal{}, false
}
