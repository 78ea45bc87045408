package crawler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// DefaultKeywords are the news searches run against every listing and feed
// source
var DefaultKeywords = []string{
	// General
	"harga beras jawa barat", "harga beras jabar", "harga pangan jawa barat",
	"harga sembako jabar", "inflasi pangan jawa barat", "stok beras jawa barat",

	// Cities
	"harga beras bandung", "harga beras bekasi", "harga beras bogor",
	"harga beras cirebon", "harga beras depok", "harga beras sukabumi",
	"harga beras tasikmalaya", "harga beras garut", "harga beras karawang",
	"harga beras indramayu", "harga beras subang", "harga beras purwakarta",

	// Varieties and grades
	"harga beras ciherang", "harga beras IR64", "harga beras premium",
	"harga beras medium", "harga beras pandan wangi",

	// Programs
	"operasi pasar beras jawa barat", "bulog jawa barat",
	"stabilitas harga pangan jabar", "subsidi beras jawa barat",

	// Related
	"harga gabah jawa barat", "pasar beras jawa barat",
	"distribusi beras jawa barat", "ketersediaan beras jabar",
}

// DefaultSources lists the built-in sources
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:         "detik",
			Provider:     "Detik.com",
			Kind:         KindListing,
			URL:          "https://www.detik.com/search/searchall?query={query}&page={page}",
			Keywords:     DefaultKeywords,
			Pages:        2,
			BlockSeconds: 600,
			FetchArticle: true,
			Selectors: Selectors{
				Item:    "article, div.list-content",
				Title:   "h3, h2",
				Link:    "a[href]",
				Snippet: "p, span.desc",
				Date:    "span.date",
			},
		},
		{
			Name:         "kompas",
			Provider:     "Kompas.com",
			Kind:         KindListing,
			URL:          "https://search.kompas.com/search/?q={query}&page={page}",
			Keywords:     DefaultKeywords,
			Pages:        2,
			BlockSeconds: 600,
			FetchArticle: true,
			Selectors: Selectors{
				Item:    "div.gs-result, div.articleItem",
				Title:   "a.gs-title, h2",
				Link:    "a.gs-title, a[href]",
				Snippet: "div.gs-snippet",
			},
		},
		{
			Name:         "tribun",
			Provider:     "Tribunnews",
			Kind:         KindListing,
			URL:          "https://www.tribunnews.com/search?q={query}&page={page}",
			Keywords:     DefaultKeywords,
			Pages:        2,
			BlockSeconds: 600,
			FetchArticle: true,
			Selectors: Selectors{
				Item:  "li.ptb15, div.txt",
				Title: "h3, h2",
				Link:  "a[href]",
				Date:  "time",
			},
		},
		{
			Name:         "antara",
			Provider:     "Antara News",
			Kind:         KindListing,
			URL:          "https://www.antaranews.com/search?q={query}&page={page}",
			Keywords:     DefaultKeywords,
			Pages:        2,
			BlockSeconds: 600,
			FetchArticle: true,
			Selectors: Selectors{
				Item:  "article, div.simple-post",
				Title: "h3, h2",
				Link:  "a[href]",
			},
		},
		{
			Name:         "pikiran-rakyat",
			Provider:     "Pikiran Rakyat",
			Kind:         KindListing,
			URL:          "https://www.pikiran-rakyat.com/search?q={query}",
			Keywords:     DefaultKeywords,
			BlockSeconds: 600,
			FetchArticle: true,
			Selectors: Selectors{
				Item:  "article, div.latest__item",
				Title: "h2, h3",
				Link:  "a[href]",
			},
		},
		{
			Name:         "google-news",
			Provider:     "Google News",
			Kind:         KindRSS,
			URL:          "https://news.google.com/rss/search?q={query}+jawa+barat&hl=id&gl=ID&ceid=ID:id",
			Keywords:     DefaultKeywords,
			MaxItems:     200,
			BlockSeconds: 900,
		},
		{
			Name:         "sibapokting",
			Provider:     "SIBAPOKTING Kabupaten Bandung",
			Kind:         KindPriceTable,
			URL:          "https://sibapokting.bandungkab.go.id/varians",
			XPath:        "//body",
			Region:       "Kabupaten Bandung",
			BlockSeconds: 600,
		},
		{
			Name:         "pihps",
			Provider:     "PIHPS Bank Indonesia",
			Kind:         KindPIHPS,
			URL:          "https://www.bi.go.id/hargapangan/TabelHarga/GetGridHarga",
			ProvinceID:   "32",
			Period:       30,
			BlockSeconds: 900,
			Commodities: []GridCommodity{
				{ID: "1", Name: "Beras Premium"},
				{ID: "2", Name: "Beras Medium"},
				{ID: "3", Name: "Beras SPHP"},
			},
		},
	}
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads a YAML file of the form "sources: [...]"
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("cannot read sources file %s", path), err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.NewConfiguration(fmt.Sprintf("invalid sources file %s", path), err)
	}

	for i := range file.Sources {
		if err := file.Sources[i].Validate(); err != nil {
			return nil, err
		}
	}
	return file.Sources, nil
}

// Validate checks that a source can be built
func (s SourceConfig) Validate() error {
	if s.Name == "" {
		return errors.NewConfiguration("source without a name", nil)
	}

	switch s.Kind {
	case KindListing:
		if s.Selectors.Item == "" {
			return errors.NewConfiguration(fmt.Sprintf("source %s: listing needs an item selector", s.Name), nil)
		}
	case KindRSS, KindPriceTable:
	case KindPIHPS:
		if len(s.Commodities) == 0 {
			return errors.NewConfiguration(fmt.Sprintf("source %s: pihps needs commodities", s.Name), nil)
		}
	case KindSocialImport:
		if s.Path == "" {
			return errors.NewConfiguration(fmt.Sprintf("source %s: social_import needs a path", s.Name), nil)
		}
		return nil
	default:
		return errors.NewConfiguration(fmt.Sprintf("source %s: unknown kind %q", s.Name, s.Kind), nil)
	}

	if s.URL == "" {
		return errors.NewConfiguration(fmt.Sprintf("source %s: missing url", s.Name), nil)
	}
	return nil
}
