package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/logger"
)

// APIError is a non-2xx answer from the bookmark service.
type APIError struct {
	StatusCode int
	Message    string
	// RetryAfter is the wait the service asked for on a 429 or 503.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bookmark service returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("bookmark service returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the bookmark service over its JSON API.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	logger  logger.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithLogger(l logger.Logger) Option { return func(c *Client) { c.logger = l } }

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New builds a client for the service at serverAddr.
func New(serverAddr, apiKey string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(serverAddr, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", serverAddr, err)
	}
	if !domain.IsWebURL(base) {
		return nil, fmt.Errorf("invalid server address %q: want http(s)://host[:port]", serverAddr)
	}

	c := &Client{
		baseURL: base,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PreviewURL is where the web UI shows a bookmark.
func (c *Client) PreviewURL(id string) string {
	return c.baseURL.String() + "/dashboard/preview/" + url.PathEscape(id)
}

func (c *Client) CreateBookmark(ctx context.Context, req domain.CreateRequest) (*domain.CreatedBookmark, error) {
	var out domain.CreatedBookmark
	if err := c.do(ctx, http.MethodPost, "/api/v1/bookmarks", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	var out domain.Bookmark
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookmarks/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBookmark(ctx context.Context, req domain.UpdateRequest) (*domain.Bookmark, error) {
	var out domain.Bookmark
	if err := c.do(ctx, http.MethodPatch, "/api/v1/bookmarks/"+url.PathEscape(req.BookmarkID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/bookmarks/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListBookmarks(ctx context.Context, q domain.ListQuery) (*domain.Page, error) {
	params := url.Values{}
	if q.Archived != nil {
		params.Set("archived", strconv.FormatBool(*q.Archived))
	}
	if q.Favourited != nil {
		params.Set("favourited", strconv.FormatBool(*q.Favourited))
	}
	if q.ListID != "" {
		params.Set("listId", q.ListID)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}

	var out domain.Page
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookmarks", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTags(ctx context.Context) ([]domain.TagSummary, error) {
	var out struct {
		Tags []domain.TagSummary `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

func (c *Client) ListLists(ctx context.Context) ([]domain.List, error) {
	var out struct {
		Lists []domain.List `json:"lists"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/lists", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Lists, nil
}

func (c *Client) CreateList(ctx context.Context, name, icon string) (*domain.List, error) {
	body := domain.List{Name: name, Icon: icon}
	var out domain.List
	if err := c.do(ctx, http.MethodPost, "/api/v1/lists", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddToList(ctx context.Context, listID, bookmarkID string) error {
	return c.do(ctx, http.MethodPut, listMemberPath(listID, bookmarkID), nil, nil, nil)
}

func (c *Client) RemoveFromList(ctx context.Context, listID, bookmarkID string) error {
	return c.do(ctx, http.MethodDelete, listMemberPath(listID, bookmarkID), nil, nil, nil)
}

func listMemberPath(listID, bookmarkID string) string {
	return "/api/v1/lists/" + url.PathEscape(listID) + "/bookmarks/" + url.PathEscape(bookmarkID)
}

// do sends one JSON request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	// path arrives escaped; keep RawPath so ids survive the round trip
	u := *c.baseURL
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("invalid request path %q: %w", path, err)
	}
	u.Path = unescaped
	u.RawQuery = params.Encode()

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("api request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
