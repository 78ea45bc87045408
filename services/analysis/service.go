package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/logger"
)

// regionThreshold is the Jaro-Winkler score a normalized region needs
const regionThreshold = 0.9

// Service runs the normalization, analysis and free prompt calls
type Service struct {
	client    Client
	gazetteer *extractor.Gazetteer
	log       *logger.Logger
}

// NewService creates a service calling client. Normalized rows whose region
// does not resolve against gazetteer are dropped; a nil gazetteer keeps
// every region the model returns.
func NewService(client Client, gazetteer *extractor.Gazetteer) *Service {
	return &Service{
		client:    client,
		gazetteer: gazetteer,
		log:       logger.ForComponent("analysis"),
	}
}

const normalizePrompt = `Kamu ETL assistant. Normalisasikan data beras/padi/gabah menjadi **JSON array of objects** dengan field PERSIS:
{ "source"?:string, "region":string, "harga":number, "kualitas"?:string, "waktu"?:string, "url"?:string, "note"?:string }

ATURAN WAJIB:
- "harga" adalah Rupiah per Kg (number murni). Jika satuan lain & bisa dikonversi, konversi ke per Kg; jika ambigu, SKIP baris tsb.
- "region" dinormalisasi ke nama kabupaten/kota di Jawa Barat (contoh: "Kota Bandung", "Kabupaten Garut"). Jika tidak jelas di Jabar, SKIP.
- "kualitas" dinormalisasi ke label sederhana (contoh umum: "premium", "medium", "ir64", dll). Gunakan lowercase.
- "source","waktu","url","note" opsional; isi bila ada.
- **Jawab HANYA JSON array valid** (tanpa teks lain, tanpa ringkasan, tanpa ranking).`

// NormalizedRow is one row in the shape every consumer of the ingest reads
type NormalizedRow struct {
	Source   string  `json:"source,omitempty"`
	Region   string  `json:"region"`
	Harga    float64 `json:"harga"`
	Kualitas string  `json:"kualitas,omitempty"`
	Waktu    string  `json:"waktu,omitempty"`
	URL      string  `json:"url,omitempty"`
	Note     string  `json:"note,omitempty"`
}

// IngestMeta counts the rows through the normalization
type IngestMeta struct {
	Received   int    `json:"received"`
	AfterModel int    `json:"afterModel"`
	Final      int    `json:"final"`
	Note       string `json:"note,omitempty"`
}

// IngestResult holds the normalized rows, or the raw answer when the model
// did not return a JSON array
type IngestResult struct {
	Data []NormalizedRow `json:"data,omitempty"`
	Raw  string          `json:"raw,omitempty"`
	Meta IngestMeta      `json:"meta"`
}

// Normalize asks the model to turn rows of any dialect into NormalizedRows:
// Rupiah per kg, a West Java regency or city, a lowercase quality label
func (s *Service) Normalize(ctx context.Context, rows []interface{}, instructions string) (*IngestResult, error) {
	if rows == nil {
		rows = []interface{}{}
	}
	data, err := fencedJSON(rows)
	if err != nil {
		return nil, err
	}

	prompt := normalizePrompt
	if instructions = strings.TrimSpace(instructions); instructions != "" {
		prompt += "\n\nInstruksi tambahan dari user:\n" + instructions
	}
	prompt += "\n\nData:\n" + data

	text, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{Meta: IngestMeta{Received: len(rows)}}

	var normalized []NormalizedRow
	if err := decodeAnswer(text, &normalized); err != nil {
		s.log.Warn().Err(err).Msg("Model answer is not a JSON array")
		result.Raw = text
		result.Meta.Note = "model did not return a JSON array"
		return result, nil
	}

	result.Meta.AfterModel = len(normalized)
	result.Data = make([]NormalizedRow, 0, len(normalized))
	for _, row := range normalized {
		if clean, ok := s.clean(row); ok {
			result.Data = append(result.Data, clean)
		}
	}
	result.Meta.Final = len(result.Data)

	return result, nil
}

// clean enforces the rules the prompt states: a positive price, a region in
// the province and a lowercase quality
func (s *Service) clean(row NormalizedRow) (NormalizedRow, bool) {
	row.Region = strings.TrimSpace(row.Region)
	row.Kualitas = strings.ToLower(strings.TrimSpace(row.Kualitas))

	if row.Harga <= 0 || row.Region == "" {
		return row, false
	}
	if s.gazetteer != nil {
		if _, ok := s.gazetteer.Resolve(row.Region, regionThreshold); !ok {
			return row, false
		}
	}
	return row, true
}

// By selects what the sentiment analysis focuses on
type By string

const (
	ByKualitas By = "kualitas"
	ByHarga    By = "harga"
)

const analyzePrompt = `Anda adalah analis NLP. Buat **WORD CLOUD** dan **SENTIMEN** dari kumpulan dokumen teks yang berhubungan dengan harga/kualitas beras/padi/gabah.

KELUARAN HANYA JSON VALID dengan format:
{
  "svg": "<svg ...>...</svg>",
  "sentiments": { "positive": number, "neutral": number, "negative": number, "method": string? },
  "summary": string,
  "top_words": [ { "text": string, "weight": number, "sentiment": "positive" | "neutral" | "negative"? }, ... ]?
}

ATURAN:
- "svg" adalah inline SVG word cloud (tanpa resource eksternal), lebar minimal 900px, tinggi 600px, gunakan variasi ukuran font sesuai "weight" (kata lebih penting = lebih besar). Pastikan <svg> diawali tag pembuka yang valid.
- Pertimbangkan konteks **BY_CONTEXT** (ditulis di bawah) saat menilai sentimen dan bobot kata.
- Sentimen dievaluasi dari "text" tiap item; gunakan skala kasar 3 kelas: positive/neutral/negative.
- "summary" ringkas (<= 120 kata) memuat insight utama (kualitas apa yang cenderung mahal/murah, wilayah dominan bila terdeteksi).
- Jangan keluarkan teks lain di luar JSON.`

var byContext = map[By]string{
	ByHarga:    "BY_CONTEXT: Fokuskan analisis pada persepsi harga (mahal/murah), tren, dan sebutan/angka terkait harga.",
	ByKualitas: "BY_CONTEXT: Fokuskan analisis pada persepsi kualitas (premium/medium/IR64/dll) dan kaitannya dengan harga bila disebutkan.",
}

// Sentiments is the three class split of the analyzed texts
type Sentiments struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
	Method   string  `json:"method,omitempty"`
}

// WordWeight is one word of the cloud
type WordWeight struct {
	Text      string  `json:"text"`
	Weight    float64 `json:"weight"`
	Sentiment string  `json:"sentiment,omitempty"`
}

// CloudResult is the word cloud and sentiment answer of the model
type CloudResult struct {
	SVG        string       `json:"svg"`
	Sentiments Sentiments   `json:"sentiments"`
	Summary    string       `json:"summary"`
	TopWords   []WordWeight `json:"top_words,omitempty"`
}

// AnalyzeResult holds the cloud, or the raw answer when it is unusable
type AnalyzeResult struct {
	Data *CloudResult `json:"data,omitempty"`
	Raw  string       `json:"raw,omitempty"`
	Note string       `json:"note,omitempty"`
}

// Analyze projects rows and asks the model for a word cloud, sentiment split
// and summary. Anything but ByHarga analyzes quality.
func (s *Service) Analyze(ctx context.Context, rows []interface{}, by By, instructions string) (*AnalyzeResult, error) {
	if by != ByHarga {
		by = ByKualitas
	}

	data, err := fencedJSON(ProjectRows(rows, MaxProjectedRows))
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(analyzePrompt)
	b.WriteString("\n\n")
	b.WriteString(byContext[by])
	b.WriteString("\n\n")
	if instructions = strings.TrimSpace(instructions); instructions != "" {
		b.WriteString("Instruksi tambahan:\n")
		b.WriteString(instructions)
		b.WriteString("\n\n")
	}
	b.WriteString("DATA (format ringkas):\n")
	b.WriteString(data)

	text, err := s.client.Complete(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var cloud CloudResult
	if err := decodeAnswer(text, &cloud); err != nil {
		return &AnalyzeResult{Raw: text, Note: "model did not return JSON"}, nil
	}
	if !strings.HasPrefix(strings.TrimSpace(cloud.SVG), "<svg") {
		return &AnalyzeResult{Raw: text, Note: "model did not return a valid svg"}, nil
	}
	return &AnalyzeResult{Data: &cloud}, nil
}

// AskResult is the answer of a free prompt: decoded JSON, the raw text when
// JSON was asked for but not returned, or plain text
type AskResult struct {
	Data interface{} `json:"data,omitempty"`
	Raw  string      `json:"raw,omitempty"`
	Text string      `json:"text,omitempty"`
}

// Ask sends prompt, followed by data as a JSON block when data is set
func (s *Service) Ask(ctx context.Context, prompt string, data json.RawMessage, asJSON bool) (*AskResult, error) {
	if len(data) > 0 {
		block, err := fencedRaw(data)
		if err != nil {
			return nil, err
		}
		prompt += "\n\nData:\n" + block
	}

	text, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if !asJSON {
		return &AskResult{Text: text}, nil
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(stripFence(text)), &decoded); err != nil {
		return &AskResult{Raw: text}, nil
	}
	return &AskResult{Data: decoded}, nil
}
