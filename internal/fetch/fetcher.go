// Package fetch resolves URL-typed verification queries into readable
// article text. Fetching is strictly best-effort: the pipeline falls
// back to matching on the raw URL string when anything here fails.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rmontanez/chequeo/internal/cache"
)

// Fetcher downloads a page, checks robots.txt, applies per-host rate
// limits and extracts the visible text.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *RobotsChecker
	limiter    *HostLimiter
	cache      cache.Cache
	cacheTTL   time.Duration
}

// Options tunes the fetcher. Zero-value rate settings fall back to
// one request per second with a burst of three.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBodyBytes  int64
	RatePerSecond float64
	Burst         int
	ProxyURL      string
}

// NewFetcher creates a fetcher. pageCache may be nil to disable
// caching of fetched text.
func NewFetcher(opts Options, pageCache cache.Cache) *Fetcher {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.Burst <= 0 {
		opts.Burst = 3
	}
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.ProxyURL != "" {
		if proxyURL, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBodyBytes,
		robots:    NewRobotsChecker(opts.UserAgent, opts.Timeout),
		limiter:   NewHostLimiter(opts.RatePerSecond, opts.Burst),
		cache:     pageCache,
		cacheTTL:  6 * time.Hour,
	}
}

// ArticleText fetches the URL and returns its title and visible text
// as one matching string.
func (f *Fetcher) ArticleText(ctx context.Context, rawURL string) (string, error) {
	title, text, err := f.Article(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(title + "\n" + text), nil
}

// Article fetches the URL and returns its title and visible text
// separately.
func (f *Fetcher) Article(ctx context.Context, rawURL string) (string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	if f.cache != nil {
		if raw, found := f.cache.Get(cache.Key(rawURL)); found {
			return splitCached(string(raw))
		}
	}

	if allowed, _, _ := f.robots.CanFetch(ctx, rawURL); !allowed {
		return "", "", fmt.Errorf("robots.txt disallows %s", rawURL)
	}
	if err := f.limiter.Wait(ctx, parsed.Host); err != nil {
		return "", "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}

	title, text, err := ExtractReadableText(string(body))
	if err != nil {
		return "", "", fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(title+text) == "" {
		return "", "", fmt.Errorf("no readable text at %s", rawURL)
	}

	if f.cache != nil {
		_ = f.cache.Set(cache.Key(rawURL), []byte(title+"\x00"+text), f.cacheTTL)
	}
	return title, text, nil
}

// splitCached undoes the NUL join used for cached entries.
func splitCached(raw string) (string, string, error) {
	if i := strings.IndexByte(raw, 0); i >= 0 {
		return raw[:i], raw[i+1:], nil
	}
	return "", raw, nil
}
