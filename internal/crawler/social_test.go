package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aahmdakml/MatkulBigdata/internal/record"
)

func TestDecodePostsJSONLines(t *testing.T) {
	data := []byte(`{"text": "harga beras di Garut Rp 13.000/kg", "url": "https://x.example/1", "likes": 10, "retweets": 3, "shares": 2}

{'caption': 'beras premium 16rb sekilo #bandung', 'url': 'https://ig.example/p/2', 'likes': 250,}
this line is beyond repair {{{
`)

	posts, skipped := decodePosts(data)
	require.Len(t, posts, 2)
	assert.LessOrEqual(t, skipped, 1)

	assert.Equal(t, "harga beras di Garut Rp 13.000/kg", posts[0].text())
	item := posts[0].item()
	require.NotNil(t, item.Engagement)
	assert.Equal(t, 10, item.Engagement.Likes)
	assert.Equal(t, 5, item.Engagement.Reshares)

	assert.Equal(t, "beras premium 16rb sekilo #bandung", posts[1].text())
	assert.Equal(t, 250, posts[1].Likes)
}

func TestDecodePostsArray(t *testing.T) {
	posts, skipped := decodePosts([]byte(`[{"content": "gabah Rp 6.500", "username": "tani"}, {"text": "beras"},]`))
	assert.Equal(t, 0, skipped)
	require.Len(t, posts, 2)
	assert.Equal(t, "tani|", posts[0].item().Label)
}

func TestDecodePostsEmpty(t *testing.T) {
	posts, skipped := decodePosts([]byte("  \n "))
	assert.Empty(t, posts)
	assert.Equal(t, 0, skipped)
}

func TestSocialImportCrawler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.jsonl")
	data := `{"text": "Beras di Tasikmalaya Rp 12.500\nstok aman", "url": "https://x.example/status/1", "likes": 900, "reshares": 200, "timestamp": "2024-01-12T08:00:00Z"}
{"text": "", "url": "https://x.example/status/2"}
{"text": "Beras di Tasikmalaya Rp 12.500", "url": "https://x.example/status/3"}
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, _ := newTestCrawler(t, SourceConfig{Name: "x-export", Kind: KindSocialImport, Path: path})
	records, err := c.FetchRecords(context.Background())
	require.NoError(t, err)

	// the empty post is dropped
	require.Len(t, records, 2)

	popular := records[0]
	assert.Equal(t, record.TypeSocial, popular.SourceType)
	assert.Equal(t, "Beras di Tasikmalaya Rp 12.500", popular.Title)
	assert.Equal(t, "2024-01-12T08:00:00Z", popular.PublishedAt)
	assert.Equal(t, "Tasikmalaya", popular.Location)
	require.NotNil(t, popular.Engagement)
	assert.Equal(t, 1100, popular.Engagement.Total())

	// engagement adds to the confidence of the same text
	assert.Equal(t, records[1].Confidence+10, popular.Confidence)
}

func TestSocialImportCrawlerMissingFile(t *testing.T) {
	c, _ := newTestCrawler(t, SourceConfig{Name: "x-export", Kind: KindSocialImport, Path: filepath.Join(t.TempDir(), "missing.jsonl")})
	_, err := c.FetchRecords(context.Background())
	assert.Error(t, err)
}
