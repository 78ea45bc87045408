package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/aahmdakml/MatkulBigdata/helpers"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
)

const reportTopRecords = 20

// WriteReport writes the statistics of records and the most confident
// records as text tables
func WriteReport(w io.Writer, records []record.Record, now time.Time) error {
	summary := record.Summarize(records)

	if _, err := fmt.Fprintf(w, "Laporan harga beras Jawa Barat\nDibuat: %s\n\n", now.Format("2006-01-02 15:04:05")); err != nil {
		return err
	}
	if err := WriteSummary(w, summary); err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	top := append([]record.Record(nil), records...)
	record.SortByConfidence(top)
	if len(top) > reportTopRecords {
		top = top[:reportTopRecords]
	}

	t := newTable("Records")
	t.AppendHeader(table.Row{"Confidence", "Commodity", "Price", "Unit", "Location", "Source", "Title"})
	for _, r := range top {
		price := "-"
		if r.HasPrice() {
			price = rupiah(r.PriceValue())
		}
		t.AppendRow(table.Row{r.Confidence, r.Commodity, price, r.Unit, r.Location, r.Source, helpers.Truncate(r.Title, 60)})
	}
	return render(w, t)
}

// WriteSummary writes the tables of a summary
func WriteSummary(w io.Writer, s record.Summary) error {
	t := newTable("Summary")
	t.AppendRows([]table.Row{
		{"Total records", s.Total},
		{"With price", s.WithPrice},
		{"With location", s.WithLocation},
		{"Average confidence", fmt.Sprintf("%.2f", s.AvgConfidence)},
	})
	if err := render(w, t); err != nil {
		return err
	}

	if p := s.Prices; p != nil {
		t := newTable("Prices (Rp)")
		t.AppendHeader(table.Row{"Count", "Mean", "Median", "Min", "Max", "Std"})
		t.AppendRow(table.Row{p.Count, fmt.Sprintf("%.2f", p.Mean), fmt.Sprintf("%.1f", p.Median), rupiah(p.Min), rupiah(p.Max), fmt.Sprintf("%.2f", p.StdDev)})
		if err := render(w, t); err != nil {
			return err
		}
	}

	for _, group := range []struct {
		title  string
		counts map[string]int
	}{
		{"By commodity", s.ByCommodity},
		{"By location", s.ByLocation},
		{"By source", s.BySource},
		{"By price category", s.ByCategory},
	} {
		if len(group.counts) == 0 {
			continue
		}
		t := newTable(group.title)
		t.AppendHeader(table.Row{"Name", "Records"})
		for _, k := range record.SortedKeys(group.counts) {
			t.AppendRow(table.Row{k, group.counts[k]})
		}
		if err := render(w, t); err != nil {
			return err
		}
	}
	return nil
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func render(w io.Writer, t table.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n\n", t.Render())
	return err
}

// rupiah formats 15000 as "15.000"
func rupiah(v int) string {
	s := fmt.Sprintf("%d", v)
	if v < 0 {
		return s
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}
	return string(out)
}
