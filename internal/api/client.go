// Package api is the typed client for the tutorial content API. Every
// operation converts transport and parse failures into a displayable *Error;
// callers never see a raw JSON or network error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	memoTTL            = 5 * time.Minute
	memoPurgeEvery     = 10 * time.Minute
)

// Client talks to the content server. Idempotent page and search reads are
// memoized in-process; mutations always round-trip.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	memo    *cache.Cache
}

// New builds a Client for the server at baseURL. A nil httpClient gets a 10s
// timeout default; a nil logger is replaced with a nop logger.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
		memo:    cache.New(memoTTL, memoPurgeEvery),
	}
}

// BaseURL reports the configured server origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type pageEnvelope struct {
	Success    bool   `json:"success"`
	Page       *Page  `json:"page"`
	TotalPages int    `json:"total_pages"`
	Current    int    `json:"current_page"`
	Error      string `json:"error"`
}

// FetchPage retrieves page n. Page numbers below 1 are rejected locally;
// upper-bound validation is the navigation layer's job since only it knows
// the loaded document's page count.
func (c *Client) FetchPage(ctx context.Context, n int) (*PageResult, error) {
	if n < 1 {
		return nil, validationErr(fmt.Sprintf("Page %d does not exist.", n))
	}
	key := "page/" + strconv.Itoa(n)
	if hit, found := c.memo.Get(key); found {
		result := hit.(PageResult)
		return &result, nil
	}

	var envelope pageEnvelope
	if err := c.getJSON(ctx, fmt.Sprintf("/api/page/%d", n), &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Page == nil {
		c.logger.Warn("page rejected", zap.Int("page", n), zap.String("error", envelope.Error))
		return nil, serverErr(envelope.Error, nil)
	}

	result := PageResult{Page: *envelope.Page, TotalPages: envelope.TotalPages, Current: envelope.Current}
	c.memo.Set(key, result, cache.DefaultExpiration)
	return &result, nil
}

type searchEnvelope struct {
	Results []SearchResult `json:"results"`
}

// Search issues a full-text query. Queries under two characters after
// trimming return ErrQueryTooShort without touching the network. An empty
// result slice is a successful outcome, distinct from any error.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return nil, ErrQueryTooShort
	}
	key := "search/" + query
	if hit, found := c.memo.Get(key); found {
		return hit.([]SearchResult), nil
	}

	var envelope searchEnvelope
	if err := c.getJSON(ctx, "/api/search?q="+url.QueryEscape(query), &envelope); err != nil {
		return nil, err
	}
	results := envelope.Results
	if results == nil {
		results = []SearchResult{}
	}
	c.memo.Set(key, results, cache.DefaultExpiration)
	return results, nil
}

type bookmarkEnvelope struct {
	Success   bool   `json:"success"`
	Bookmarks []int  `json:"bookmarks"`
	Error     string `json:"error"`
}

// Bookmarks reads the server's bookmark set.
func (c *Client) Bookmarks(ctx context.Context) ([]int, error) {
	var envelope bookmarkEnvelope
	if err := c.getJSON(ctx, "/api/bookmark", &envelope); err != nil {
		return nil, err
	}
	return envelope.Bookmarks, nil
}

// SetBookmark applies an add or remove and returns the authoritative set the
// server now holds. Callers replace their local set with it wholesale.
func (c *Client) SetBookmark(ctx context.Context, page int, action BookmarkAction) ([]int, error) {
	if action != BookmarkAdd && action != BookmarkRemove {
		return nil, validationErr(fmt.Sprintf("Unknown bookmark action %q.", action))
	}
	body := map[string]any{"page_number": page, "action": string(action)}
	var envelope bookmarkEnvelope
	if err := c.postJSON(ctx, "/api/bookmark", body, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, serverErr(envelope.Error, nil)
	}
	return envelope.Bookmarks, nil
}

type notesEnvelope struct {
	Success bool              `json:"success"`
	Notes   map[string]string `json:"notes"`
	Error   string            `json:"error"`
}

// Notes reads every stored note keyed by page number. Entries with
// non-numeric keys are dropped rather than failing the read.
func (c *Client) Notes(ctx context.Context) (map[int]string, error) {
	var envelope notesEnvelope
	if err := c.getJSON(ctx, "/api/notes", &envelope); err != nil {
		return nil, err
	}
	notes := make(map[int]string, len(envelope.Notes))
	for key, text := range envelope.Notes {
		page, err := strconv.Atoi(key)
		if err != nil {
			c.logger.Warn("dropping note with bad page key", zap.String("key", key))
			continue
		}
		notes[page] = text
	}
	return notes, nil
}

// SetNote stores the trimmed note for page. An empty-after-trim note is a
// delete, not an empty entry. The trimmed text is returned so the caller can
// mirror exactly what the server stored.
func (c *Client) SetNote(ctx context.Context, page int, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	body := map[string]any{"page_number": page, "note": trimmed}
	var envelope notesEnvelope
	if err := c.postJSON(ctx, "/api/notes", body, &envelope); err != nil {
		return "", err
	}
	if !envelope.Success {
		return "", serverErr(envelope.Error, nil)
	}
	return trimmed, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return networkErr(path, err)
	}
	return c.do(req, path, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return networkErr(path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return networkErr(path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("path", path), zap.Error(err))
		return networkErr(path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("server error", zap.String("path", path), zap.Int("status", resp.StatusCode))
		return serverErr("", fmt.Errorf("content API error: %s (%s)", resp.Status, string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return serverErr("The content server sent an unreadable response.", err)
	}
	return nil
}
