package helpers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a URL may be crawled, caching robots.txt
// per host
type RobotsChecker struct {
	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData
	agent string
}

// NewRobotsChecker creates a checker matching groups for userAgent
func NewRobotsChecker(userAgent string) *RobotsChecker {
	return &RobotsChecker{
		cache: make(map[string]*robotstxt.RobotsData),
		agent: productToken(userAgent),
	}
}

// Allowed reports whether rawURL may be fetched and the crawl delay the host
// asks for. An unreachable robots.txt allows everything.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, time.Duration) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, 0
	}

	data, err := r.robots(ctx, u)
	if err != nil {
		return true, 0
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}

	var delay time.Duration
	if group := data.FindGroup(r.agent); group != nil {
		delay = group.CrawlDelay
	}
	return data.TestAgent(path, r.agent), delay
}

func (r *RobotsChecker) robots(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[u.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent())

	resp, err := HTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// FromResponse treats 4xx as allow-all and 5xx as disallow-all
	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[u.Host] = data
	r.mu.Unlock()
	return data, nil
}

// productToken reduces "HargaBerasBot/1.0 (+url)" to "HargaBerasBot"
func productToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return "*"
	}
	token := fields[0]
	if strings.HasPrefix(token, "Mozilla") && len(fields) > 1 {
		// "Mozilla/5.0 (compatible; Bot/1.0)"
		for _, f := range fields[1:] {
			f = strings.Trim(f, "();")
			if strings.Contains(f, "/") {
				token = f
				break
			}
		}
	}
	return strings.SplitN(token, "/", 2)[0]
}
