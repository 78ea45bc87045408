package extractor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeywordGroup maps a set of keywords to one value.
// Groups are evaluated in order and the first group with a matching keyword wins.
type KeywordGroup struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// PricePattern is a regular expression over lowercased text whose first
// capture group holds the price token. Weight is both its specificity rank
// and its confidence increment.
type PricePattern struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Weight  int    `yaml:"weight"`
}

// Multiplier converts a trailing word such as "ribu" into a factor
type Multiplier struct {
	Suffix string `yaml:"suffix"`
	Factor int    `yaml:"factor"`
}

// EngagementTier grants Bonus when likes plus reshares exceed Above
type EngagementTier struct {
	Above int `yaml:"above"`
	Bonus int `yaml:"bonus"`
}

// Increments are the fixed confidence increments of the keyword signals
type Increments struct {
	Commodity int `yaml:"commodity"`
	Unit      int `yaml:"unit"`
	Quality   int `yaml:"quality"`
	Location  int `yaml:"location"`
	Province  int `yaml:"province"`
}

// Config holds every table the extractor uses. It is copied at construction
// and never mutated afterwards.
type Config struct {
	Commodities     []KeywordGroup   `yaml:"commodities"`
	PricePatterns   []PricePattern   `yaml:"price_patterns"`
	Multipliers     []Multiplier     `yaml:"multipliers"`
	Units           []KeywordGroup   `yaml:"units"`
	DefaultUnit     Unit             `yaml:"default_unit"`
	Qualities       []KeywordGroup   `yaml:"qualities"`
	Gazetteer       []KeywordGroup   `yaml:"gazetteer"`
	Province        []string         `yaml:"province"`
	Increments      Increments       `yaml:"increments"`
	PriceMin        int              `yaml:"price_min"`
	PriceMax        int              `yaml:"price_max"`
	EngagementTiers []EngagementTier `yaml:"engagement_tiers"`

	// Annotation tables, not part of the confidence score
	PriceCategories []KeywordGroup `yaml:"price_categories"`
	ProducerContext []string       `yaml:"producer_context"`
	Varieties       []KeywordGroup `yaml:"varieties"`
	Subdistricts    []string       `yaml:"subdistricts"`
}

// number token shared by the currency patterns: grouped thousands with an
// optional multiplier, a (decimal) number with a mandatory multiplier, or
// 4 to 7 plain digits
const (
	multiplierWords = `(?:ribu|rb|juta|jt)`
	groupedNumber   = `\d{1,3}(?:[.,]\d{3})+(?:\s*` + multiplierWords + `\b)?`
	scaledNumber    = `\d+(?:[.,]\d+)?\s*` + multiplierWords + `\b`
	plainNumber     = `\d{4,7}\b`
	currencyPrefix  = `(?:rp\.?\s*)?`
)

// DefaultConfig returns the West Java tables
func DefaultConfig() Config {
	anyNumber := `(` + groupedNumber + `|` + scaledNumber + `|` + plainNumber + `)`
	formattedNumber := `(` + groupedNumber + `|` + scaledNumber + `)`

	return Config{
		Commodities: []KeywordGroup{
			{Name: string(CommodityBerasPremium), Keywords: []string{"beras premium", "premium rice", "beras super", "beras kualitas i", "beras grade a"}},
			{Name: string(CommodityBerasMedium), Keywords: []string{"beras medium", "beras sedang", "medium rice", "beras kualitas ii", "beras grade b"}},
			{Name: string(CommodityBerasRendah), Keywords: []string{"beras kualitas rendah", "beras kualitas iii", "beras grade c"}},
			{Name: string(CommodityBeras), Keywords: []string{"beras", "rice", "#beras"}},
			{Name: string(CommodityPadi), Keywords: []string{"padi", "paddy", "#padi"}},
			{Name: string(CommodityGabah), Keywords: []string{"gabah", "gabah kering", "gkg", "gkp", "gabah kering giling", "#gabah"}},
		},
		PricePatterns: []PricePattern{
			{Name: "unit_qualified", Pattern: currencyPrefix + anyNumber + `\s*(?:/\s*(?:kg|kilo)\b|per\s*(?:kg|kilo)\b)`, Weight: 35},
			{Name: "keyword_prefixed", Pattern: `\b(?:se)?harga[:\s]+` + currencyPrefix + anyNumber, Weight: 30},
			{Name: "at_prefixed", Pattern: `@\s*` + currencyPrefix + anyNumber, Weight: 25},
			{Name: "currency", Pattern: currencyPrefix + formattedNumber, Weight: 20},
			{Name: "currency_plain", Pattern: `\brp\.?\s*(` + plainNumber + `)`, Weight: 20},
			{Name: "bare_number", Pattern: `\b(\d{4,7})\b`, Weight: 15},
		},
		Multipliers: []Multiplier{
			{Suffix: "ribu", Factor: 1_000},
			{Suffix: "rb", Factor: 1_000},
			{Suffix: "juta", Factor: 1_000_000},
			{Suffix: "jt", Factor: 1_000_000},
		},
		Units: []KeywordGroup{
			{Name: string(UnitKg), Keywords: []string{"kg", "kilo", "kilogram", "/kg", "per kg", "per kilo"}},
			{Name: string(UnitTon), Keywords: []string{"ton", "tonne", "/ton", "per ton"}},
			{Name: string(UnitKwintal), Keywords: []string{"kwintal", "kuintal", "kw", "/kw"}},
		},
		DefaultUnit: UnitKg,
		Qualities: []KeywordGroup{
			{Name: string(QualityPremium), Keywords: []string{"premium", "super", "kualitas i", "grade a", "kelas 1", "a+", "terbaik"}},
			{Name: string(QualityMedium), Keywords: []string{"medium", "sedang", "kualitas ii", "grade b", "kelas 2", "menengah"}},
			{Name: string(QualityRendah), Keywords: []string{"rendah", "kualitas iii", "grade c", "kelas 3", "ekonomis"}},
		},
		Gazetteer: []KeywordGroup{
			{Name: "bandung barat", Keywords: []string{"bandung barat", "kbb", "#bandungbarat"}},
			{Name: "bandung", Keywords: []string{"bandung", "kota bandung", "kab bandung", "#bandung"}},
			{Name: "bekasi", Keywords: []string{"bekasi", "#bekasi"}},
			{Name: "bogor", Keywords: []string{"bogor", "#bogor"}},
			{Name: "cirebon", Keywords: []string{"cirebon", "#cirebon"}},
			{Name: "depok", Keywords: []string{"depok", "#depok"}},
			{Name: "sukabumi", Keywords: []string{"sukabumi", "#sukabumi"}},
			{Name: "tasikmalaya", Keywords: []string{"tasikmalaya", "tasik", "#tasikmalaya"}},
			{Name: "banjar", Keywords: []string{"banjar", "kota banjar"}},
			{Name: "cimahi", Keywords: []string{"cimahi", "#cimahi"}},
			{Name: "indramayu", Keywords: []string{"indramayu", "#indramayu"}},
			{Name: "karawang", Keywords: []string{"karawang", "#karawang"}},
			{Name: "kuningan", Keywords: []string{"kuningan", "#kuningan"}},
			{Name: "majalengka", Keywords: []string{"majalengka", "#majalengka"}},
			{Name: "pangandaran", Keywords: []string{"pangandaran", "#pangandaran"}},
			{Name: "purwakarta", Keywords: []string{"purwakarta", "#purwakarta"}},
			{Name: "subang", Keywords: []string{"subang", "#subang"}},
			{Name: "sumedang", Keywords: []string{"sumedang", "#sumedang"}},
			{Name: "garut", Keywords: []string{"garut", "#garut"}},
			{Name: "ciamis", Keywords: []string{"ciamis", "#ciamis"}},
			{Name: "cianjur", Keywords: []string{"cianjur", "#cianjur"}},
		},
		Province: []string{"jawa barat", "jabar", "#jabar"},
		Increments: Increments{
			Commodity: 25,
			Unit:      10,
			Quality:   15,
			Location:  15,
			Province:  10,
		},
		PriceMin: 1_000,
		PriceMax: 100_000,
		EngagementTiers: []EngagementTier{
			{Above: 100, Bonus: 10},
			{Above: 50, Bonus: 5},
		},
		PriceCategories: []KeywordGroup{
			{Name: CategoryGabahKering, Keywords: []string{"gabah kering", "gkg"}},
			{Name: CategoryPadiProdusen, Keywords: []string{"gabah", "padi", "gkp", "petani", "produsen", "panen", "sawah", "kuintal", "kwintal"}},
			{Name: CategoryBerasKonsumen, Keywords: []string{"beras", "konsumen", "eceran", "pasar", "toko", "per kg", "/kg", "premium", "medium", "ciherang", "ir64", "retail"}},
		},
		ProducerContext: []string{"gabah", "gkp", "gkg", "penggilingan", "petani"},
		Varieties: []KeywordGroup{
			{Name: "IR64", Keywords: []string{"ir64", "ir 64", "ir-64"}},
			{Name: "Ciherang", Keywords: []string{"ciherang"}},
			{Name: "Pandan Wangi", Keywords: []string{"pandan wangi", "pandanwangi"}},
			{Name: "Mentik", Keywords: []string{"mentik"}},
			{Name: "Rojolele", Keywords: []string{"rojolele"}},
			{Name: "Slyp", Keywords: []string{"slyp"}},
			{Name: "SPHP", Keywords: []string{"sphp"}},
			{Name: "Organik", Keywords: []string{"organik"}},
		},
		Subdistricts: []string{
			"arcamanik", "antapani", "astana anyar", "babakan ciparay", "bandung kidul",
			"bandung kulon", "bandung wetan", "batununggal", "buah batu", "cibeunying kaler",
			"cibeunying kidul", "cibiru", "cicendo", "cidadap", "cinambo", "coblong",
			"gedebage", "kiaracondong", "lengkong", "mandalajati", "panyileukan",
			"rancasari", "regol", "sukajadi", "sukasari", "sumur bandung", "ujung berung",
		},
	}
}

// LoadConfigFile reads a YAML file on top of DefaultConfig.
// Top-level keys present in the file replace the default table entirely.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read extractor config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse extractor config %s: %w", path, err)
	}

	return cfg, nil
}
