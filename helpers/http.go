package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.google.co.id/",
		"https://news.google.com/",
	}

	clientMu  sync.RWMutex
	client    = &http.Client{Timeout: 20 * time.Second}
	userAgent string
)

// ConfigureHTTP sets the request timeout and, when non-empty, a fixed
// User-Agent replacing the rotating browser ones
func ConfigureHTTP(timeout time.Duration, ua string) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if timeout > 0 {
		client = &http.Client{Timeout: timeout}
	}
	userAgent = ua
}

// HTTPClient returns the shared client
func HTTPClient() *http.Client {
	clientMu.RLock()
	defer clientMu.RUnlock()
	return client
}

// UserAgent returns the configured User-Agent or a random browser one
func UserAgent() string {
	clientMu.RLock()
	ua := userAgent
	clientMu.RUnlock()
	if ua != "" {
		return ua
	}
	return userAgents[mathrand.Intn(len(userAgents))]
}

// FetchSimply sends a plain GET request and returns the raw body
func FetchSimply(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent())

	resp, err := HTTPClient().Do(req)
	if err != nil {
		return nil, errors.NewNetwork(HostOf(rawURL), "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(rawURL, resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(HostOf(rawURL), "failed to read response body", err)
	}

	return data, nil
}

// FetchWithRandomHeaders sends an HTTP GET request with randomized headers,
// converts the response body to UTF-8 (if needed), and returns it as an io.Reader.
func FetchWithRandomHeaders(ctx context.Context, rawURL string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Referer", referers[mathrand.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := HTTPClient().Do(req)
	if err != nil {
		return nil, errors.NewNetwork(HostOf(rawURL), "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(rawURL, resp); err != nil {
		return nil, err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(HostOf(rawURL), "failed to read response body", err)
	}

	return ToUTF8(bodyBytes, resp.Header.Get("Content-Type"))
}

// ToUTF8 converts body to UTF-8 using the charset of contentType or, when
// absent, the one sniffed from the markup
func ToUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(body), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}
	return &buf, nil
}

func checkStatus(rawURL string, resp *http.Response) error {
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return errors.NewRateLimit(HostOf(rawURL), resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode != http.StatusOK {
		return errors.NewNetwork(HostOf(rawURL), fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}
	return nil
}

// HostOf returns the host of rawURL, or rawURL itself when it has none
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
