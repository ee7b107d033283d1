// Package openlibrary fetches book metadata from openlibrary.org for seeding the catalog.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://openlibrary.org"
	defaultCoverURL = "https://covers.openlibrary.org"
)

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
}

type Option func(*Client)

// WithBaseURL points the client at another host, e.g. an httptest server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func NewClient(userAgent string, rps int, maxRetries int, opts ...Option) *Client {
	if rps <= 0 {
		rps = 1
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), 1),
		maxRetries: maxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Work is one search.json hit.
type Work struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorNames      []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverID          int      `json:"cover_i"`
	FirstSentence    []string `json:"first_sentence"`
}

// ID is the work key without its /works/ prefix.
func (w Work) ID() string {
	return strings.ToLower(strings.TrimPrefix(w.Key, "/works/"))
}

func (w Work) Author() string {
	if len(w.AuthorNames) == 0 {
		return "Unknown"
	}
	return w.AuthorNames[0]
}

// CoverURL is the large cover image, or "" when the work has none.
func (w Work) CoverURL() string {
	if w.CoverID == 0 {
		return ""
	}
	return fmt.Sprintf("%s/b/id/%d-L.jpg", defaultCoverURL, w.CoverID)
}

type SearchResponse struct {
	NumFound int    `json:"numFound"`
	Docs     []Work `json:"docs"`
}

func (c *Client) SearchBySubject(ctx context.Context, subject string, limit int) (*SearchResponse, error) {
	u := fmt.Sprintf("%s/search.json?q=subject:%s&fields=key,title,author_name,first_publish_year,cover_i,first_sentence&limit=%d",
		c.baseURL, url.QueryEscape(subject), limit)

	var res SearchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, u string, target interface{}) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// 1s, 2s, 4s...
			backoff := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retry, err := c.fetch(ctx, u, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) fetch(ctx context.Context, u string, target interface{}) (retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, err
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("decode %s: %w", u, err)
	}
	return false, nil
}
