package crawler

import (
	"context"
	"io"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/aahmdakml/MatkulBigdata/internal/textutil"
)

const maxArticleLength = 6000

// fetchArticle fetches an article page and reduces it to its body text
func (c *BaseCrawler) fetchArticle(ctx context.Context, pageURL string) (string, error) {
	body, err := c.fetchWithCache(ctx, pageURL)
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return articleText(string(raw), pageURL), nil
}

// articleText extracts the readable text of an article. Pages readability
// cannot parse fall back to a markdown rendering of the whole document.
func articleText(html, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = &url.URL{}
	}

	text := ""
	if article, err := readability.FromReader(strings.NewReader(html), parsed); err == nil {
		text = article.TextContent
	}

	if strings.TrimSpace(text) == "" {
		if md, mdErr := htmltomarkdown.ConvertString(html); mdErr == nil {
			text = md
		}
	}

	text = textutil.CollapseSpaces(text)
	if len([]rune(text)) > maxArticleLength {
		text = string([]rune(text)[:maxArticleLength])
	}
	return text
}

// plainText strips markup from an HTML fragment such as a feed description
func plainText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return textutil.CollapseSpaces(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return textutil.CollapseSpaces(fragment)
	}
	return textutil.CollapseSpaces(doc.Text())
}
