package crawler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// socialPost is one post of a social media export. The field names follow
// the exports of common Instagram and X scrapers.
type socialPost struct {
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	Content   string `json:"content"`
	URL       string `json:"url"`
	Author    string `json:"author"`
	Username  string `json:"username"`
	Likes     int    `json:"likes"`
	Reshares  int    `json:"reshares"`
	Retweets  int    `json:"retweets"`
	Shares    int    `json:"shares"`
	Timestamp string `json:"timestamp"`
	Date      string `json:"date"`
}

func (p socialPost) text() string {
	for _, t := range []string{p.Text, p.Caption, p.Content} {
		if strings.TrimSpace(t) != "" {
			return t
		}
	}
	return ""
}

func (p socialPost) item() Item {
	text := p.text()
	title := text
	if i := strings.IndexByte(title, '\n'); i > 0 {
		title = title[:i]
	}

	author := p.Author
	if author == "" {
		author = p.Username
	}
	published := p.Timestamp
	if published == "" {
		published = p.Date
	}

	return Item{
		Title:       strings.TrimSpace(title),
		URL:         p.URL,
		Body:        text,
		PublishedAt: published,
		Label:       author + "|" + published,
		Engagement: &extractor.Engagement{
			Likes:    p.Likes,
			Reshares: p.Reshares + p.Retweets + p.Shares,
		},
	}
}

// SocialImportCrawler reads posts exported by an external social media
// scraper as JSON Lines or a JSON array
type SocialImportCrawler struct {
	BaseCrawler
	Config SourceConfig
}

// FetchRecords reads the export file and builds a record per post
func (c *SocialImportCrawler) FetchRecords(ctx context.Context) ([]record.Record, error) {
	data, err := os.ReadFile(c.Config.Path)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeValidation, c.Name, "cannot read social export", err)
	}

	posts, skipped := decodePosts(data)
	if skipped > 0 {
		c.sourceLog().Warn().Int("skipped", skipped).Msg("Unreadable posts in export")
	}
	if len(posts) == 0 && skipped > 0 {
		return nil, errors.NewParsing(c.Name, "no readable posts in export", nil)
	}

	items := make([]Item, 0, len(posts))
	for _, p := range posts {
		if p.text() == "" {
			continue
		}
		items = append(items, p.item())
	}
	if c.Config.MaxItems > 0 && len(items) > c.Config.MaxItems {
		items = items[:c.Config.MaxItems]
	}

	return c.processItems(ctx, items, nil), nil
}

// decodePosts reads a JSON array or JSON Lines, repairing malformed JSON
// (trailing commas, single quotes, truncated objects) before giving up on it
func decodePosts(data []byte) ([]socialPost, int) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0
	}

	if trimmed[0] == '[' {
		var posts []socialPost
		if err := unmarshalRepaired(string(trimmed), &posts); err != nil {
			return nil, 1
		}
		return posts, 0
	}

	var (
		posts   []socialPost
		skipped int
	)
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var p socialPost
		if err := unmarshalRepaired(line, &p); err != nil {
			skipped++
			continue
		}
		posts = append(posts, p)
	}
	if scanner.Err() != nil {
		skipped++
	}
	return posts, skipped
}

func unmarshalRepaired(s string, v interface{}) error {
	err := json.Unmarshal([]byte(s), v)
	if err == nil {
		return nil
	}
	repaired, repairErr := jsonrepair.JSONRepair(s)
	if repairErr != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), v)
}
