package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// PIHPSCrawler requests the Bank Indonesia strategic food price grid for
// each configured commodity and keeps the rows of cities in the province
type PIHPSCrawler struct {
	BaseCrawler
	Config SourceConfig

	client  *resty.Client
	resolve func(label string) (string, bool)
}

func newPIHPSClient(timeout time.Duration, log resty.Logger) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetLogger(log).
		SetHeaders(map[string]string{
			"X-Requested-With": "XMLHttpRequest",
			"Origin":           "https://www.bi.go.id",
			"Referer":          "https://www.bi.go.id/hargapangan",
			"Accept-Language":  "id-ID,id;q=0.9",
		})
}

// FetchRecords posts one grid request per commodity
func (c *PIHPSCrawler) FetchRecords(ctx context.Context) ([]record.Record, error) {
	var (
		items    []Item
		firstErr error
	)

	for _, commodity := range c.Config.Commodities {
		rows, err := c.fetchGrid(ctx, commodity)
		if err != nil {
			c.sourceLog().Warn().Err(err).Str("commodity", commodity.Name).Msg("Grid request failed")
			if firstErr == nil {
				firstErr = err
			}
			if errors.IsRateLimit(err) {
				break
			}
			continue
		}
		items = append(items, rows...)
	}

	if len(items) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return c.processItems(ctx, items, nil), nil
}

func (c *PIHPSCrawler) fetchGrid(ctx context.Context, commodity GridCommodity) ([]Item, error) {
	if err := c.beforeFetch(ctx, c.Config.URL); err != nil {
		return nil, err
	}

	period := c.Config.Period
	if period <= 0 {
		period = 30
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", helpers.UserAgent()).
		SetFormData(map[string]string{
			"ID_Komoditas": commodity.ID,
			"ID_Provinsi":  c.Config.ProvinceID,
			"Periode":      strconv.Itoa(period),
		}).
		Post(c.Config.URL)
	c.Metrics.ObserveFetch(c.Name, time.Since(start))
	if err != nil {
		return nil, errors.NewNetwork(c.Name, "grid request failed", err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests || code == 430:
		err := errors.NewRateLimit(c.Name, resp.Header().Get("Retry-After"))
		c.afterError(err)
		return nil, err
	case code != http.StatusOK:
		return nil, errors.NewNetwork(c.Name, fmt.Sprintf("unexpected status code: %d", code), nil)
	}

	return c.parseGrid(resp.Body(), commodity)
}

// parseGrid reads "city, price, date" rows
func (c *PIHPSCrawler) parseGrid(body []byte, commodity GridCommodity) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewParsing(c.Name, "failed to parse grid", err)
	}

	var items []Item
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		var cols []string
		row.Find("td").Each(func(_ int, td *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(td.Text()))
		})
		if len(cols) < 3 {
			return
		}

		region, ok := c.resolveCity(cols[0])
		if !ok {
			return
		}
		price, ok := parseRupiah(cols[1])
		if !ok {
			return
		}

		items = append(items, tableItem(labelledPrice{Label: commodity.Name, Price: price}, region, c.Config.URL, cols[2]))
	})

	return items, nil
}

// resolveCity maps a grid city to a gazetteer name. Without a resolver every
// row is kept under its own label.
func (c *PIHPSCrawler) resolveCity(city string) (string, bool) {
	if c.resolve == nil {
		return textutil.TitleCase(strings.ToLower(city)), city != ""
	}
	name, ok := c.resolve(city)
	if !ok {
		return "", false
	}
	return textutil.TitleCase(name), true
}
