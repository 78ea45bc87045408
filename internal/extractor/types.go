package extractor

// Commodity is the rice-chain product a text talks about
type Commodity string

const (
	CommodityBerasPremium Commodity = "beras_premium"
	CommodityBerasMedium  Commodity = "beras_medium"
	CommodityBerasRendah  Commodity = "beras_rendah"
	CommodityBeras        Commodity = "beras"
	CommodityPadi         Commodity = "padi"
	CommodityGabah        Commodity = "gabah"
)

// Unit is the quantity a price refers to
type Unit string

const (
	UnitKg      Unit = "kg"
	UnitTon     Unit = "ton"
	UnitKwintal Unit = "kwintal"
)

// Quality is the rice quality tier
type Quality string

const (
	QualityPremium Quality = "premium"
	QualityMedium  Quality = "medium"
	QualityRendah  Quality = "rendah"
)

// MaxConfidence caps the accumulated confidence score
const MaxConfidence = 100

// Fact is what the extractor infers from one text blob.
// Empty strings and a nil Price mean "not found".
type Fact struct {
	Commodity  Commodity `json:"commodity,omitempty"`
	Price      *int      `json:"price,omitempty"`
	Unit       Unit      `json:"unit"`
	Quality    Quality   `json:"quality,omitempty"`
	Location   string    `json:"location,omitempty"`
	Confidence int       `json:"confidence"`
}

// HasPrice reports whether a plausible price was found
func (f Fact) HasPrice() bool {
	return f.Price != nil
}

// PriceValue returns the price or 0 when absent
func (f Fact) PriceValue() int {
	if f.Price == nil {
		return 0
	}
	return *f.Price
}

// Engagement holds the public counters of a social post
type Engagement struct {
	Likes    int `json:"likes"`
	Reshares int `json:"reshares"`
}

// Total returns likes plus reshares
func (e Engagement) Total() int {
	return e.Likes + e.Reshares
}

// Field names the Fact field a signal contributes to
type Field string

const (
	FieldCommodity  Field = "commodity"
	FieldPrice      Field = "price"
	FieldUnit       Field = "unit"
	FieldQuality    Field = "quality"
	FieldLocation   Field = "location"
	FieldProvince   Field = "province"
	FieldEngagement Field = "engagement"
)

// Signal is the result of one evaluator: the field value it found and
// the confidence increment it is worth.
type Signal struct {
	Field     Field  `json:"field"`
	Value     string `json:"value"`
	Price     int    `json:"price,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Increment int    `json:"increment"`
}
