package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/franz/music-catalog/internal/util"
)

const (
	// BaseURL is the MusicBrainz API base URL
	BaseURL = "https://musicbrainz.org/ws/2"

	// UserAgent identifies this application to MusicBrainz
	// MusicBrainz requires a proper user agent
	UserAgent = "mcat-MusicCatalog/1.0 (https://github.com/franz/music-catalog)"

	// RateLimit is the minimum interval between requests (MusicBrainz requirement)
	RateLimit = 1 * time.Second
)

// Client handles MusicBrainz API requests with rate limiting
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *time.Ticker
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithBaseURL points the client at another MusicBrainz mirror
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit overrides the interval between requests
func WithRateLimit(d time.Duration) ClientOption {
	return func(c *Client) {
		c.rateLimiter.Stop()
		c.rateLimiter = time.NewTicker(d)
	}
}

// NewClient creates a new MusicBrainz API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     BaseURL,
		userAgent:   UserAgent,
		rateLimiter: time.NewTicker(RateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases resources used by the client
func (c *Client) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
}

// ArtistSearchResult represents a search result from MusicBrainz
type ArtistSearchResult struct {
	Artists []Artist `json:"artists"`
	Count   int      `json:"count"`
	Offset  int      `json:"offset"`
}

// Artist represents an artist from MusicBrainz
type Artist struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SortName       string    `json:"sort-name"`
	Score          int       `json:"score"` // MusicBrainz returns as integer
	Type           string    `json:"type"`
	Disambiguation string    `json:"disambiguation"`
	LifeSpan       *LifeSpan `json:"life-span"`
}

// LifeSpan holds partial dates: "1685", "1685-03" or "1685-03-31"
type LifeSpan struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
	Ended bool   `json:"ended"`
}

// Years returns the birth and death years, nil where unknown
func (l *LifeSpan) Years() (born, died *int) {
	if l == nil {
		return nil, nil
	}
	return parseYear(l.Begin), parseYear(l.End)
}

func parseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}

// SearchPerson returns the best-scoring person matching name, or nil when
// MusicBrainz has no candidate
func (c *Client) SearchPerson(ctx context.Context, name string) (*Artist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("artist name cannot be empty")
	}

	// Wait for rate limit
	if err := c.waitForRateLimit(ctx); err != nil {
		return nil, err
	}

	query := url.QueryEscape(fmt.Sprintf(`artist:"%s" AND type:person`, strings.ReplaceAll(name, `"`, `\"`)))
	urlStr := fmt.Sprintf("%s/artist/?query=%s&fmt=json&limit=5", c.baseURL, query)

	util.DebugLog("MusicBrainz API: searching for composer '%s'", name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("MusicBrainz service unavailable (503) - rate limit exceeded or maintenance")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var result ArtistSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Artists) == 0 {
		util.DebugLog("MusicBrainz: no results for '%s'", name)
		return nil, nil
	}

	// Results come back ordered by score
	artist := &result.Artists[0]
	util.DebugLog("MusicBrainz: found '%s' (score: %d, MBID: %s)", artist.Name, artist.Score, artist.ID)

	return artist, nil
}

// waitForRateLimit blocks until the next request slot (1 req/sec)
func (c *Client) waitForRateLimit(ctx context.Context) error {
	select {
	case <-c.rateLimiter.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
