// Package api implements the BookStack REST client consumed by the sync
// engine. All network I/O lives here; failures surface as classified
// *stackmd.RequestError values.
package api

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

	"github.com/sethvargo/go-retry"
	"github.com/stackmd/stackmd"
)

const listPageSize = 500

// HTTPClient implements stackmd.Client using net/http.
type HTTPClient struct {
	baseURL     string
	tokenID     string
	tokenSecret string
	httpClient  *http.Client
	debug       *stackmd.DebugLogger
	maxRetries  uint64
}

var _ stackmd.Client = (*HTTPClient)(nil)

// NewHTTPClient creates a BookStack API client. baseURL is the root URL
// of the instance; tokenID/tokenSecret are its API token pair.
func NewHTTPClient(baseURL, tokenID, tokenSecret string) *HTTPClient {
	return &HTTPClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// WithHTTPClient sets a custom http.Client (for testing or custom timeouts).
func (c *HTTPClient) WithHTTPClient(client *http.Client) *HTTPClient {
	c.httpClient = client
	return c
}

// WithTimeout sets the per-request timeout.
func (c *HTTPClient) WithTimeout(d time.Duration) *HTTPClient {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// WithDebugLogger attaches a debug logger for request/response tracing.
func (c *HTTPClient) WithDebugLogger(logger *stackmd.DebugLogger) *HTTPClient {
	c.debug = logger
	if logger != nil {
		logger.Scrub(c.tokenSecret)
	}
	return c
}

// WithMaxRetries bounds the retry attempts for rate-limit, server and
// connection failures. Zero disables retries.
func (c *HTTPClient) WithMaxRetries(n uint64) *HTTPClient {
	c.maxRetries = n
	return c
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Token %s:%s", c.tokenID, c.tokenSecret))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "stackmd/1.0")
}

// do executes one API request with retry-with-backoff on retryable
// failures and returns the raw response body.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, &stackmd.RequestError{Kind: stackmd.KindValidation, Operation: op, Err: err}
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(500*time.Millisecond))

	var respBody []byte
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(reqBody))
		if err != nil {
			return &stackmd.RequestError{Kind: stackmd.KindConnection, Operation: op, Err: err}
		}
		c.setHeaders(req)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		c.debug.Request(method, reqURL, reqBody)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.debug.Error(method, reqURL, err)
			return retry.RetryableError(&stackmd.RequestError{Kind: stackmd.KindConnection, Operation: op, Err: err})
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.debug.Error(method, reqURL, err)
			return retry.RetryableError(&stackmd.RequestError{Kind: stackmd.KindConnection, Operation: op, Err: err})
		}
		c.debug.Response(method, reqURL, resp.StatusCode, body)

		if resp.StatusCode >= 400 {
			reqErr := classify(op, resp.StatusCode, body)
			if stackmd.IsRetryable(reqErr) {
				return retry.RetryableError(reqErr)
			}
			return reqErr
		}

		respBody = body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return respBody, nil
}

// classify maps an HTTP error status to the request error taxonomy.
func classify(op string, status int, body []byte) *stackmd.RequestError {
	excerpt := bodyExcerpt(body)
	base := stackmd.RequestError{Operation: op, StatusCode: status, Message: excerpt}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		base.Kind = stackmd.KindAuth
	case status == http.StatusNotFound:
		base.Kind = stackmd.KindNotFound
	case status == http.StatusUnprocessableEntity:
		base.Kind = stackmd.KindValidation
		base.Message = validationDetail(body, excerpt)
	case status == http.StatusTooManyRequests:
		base.Kind = stackmd.KindRateLimit
	case status >= 500:
		base.Kind = stackmd.KindServer
	default:
		base.Kind = stackmd.KindValidation
	}
	base.Err = fmt.Errorf("HTTP %d", status)
	return &base
}

func bodyExcerpt(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// validationDetail extracts per-field validation errors from a 422 body.
func validationDetail(body []byte, fallback string) string {
	var parsed struct {
		Error struct {
			Message    string              `json:"message"`
			Validation map[string][]string `json:"validation"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Error.Message == "" {
		return fallback
	}
	msg := parsed.Error.Message
	for field, errs := range parsed.Error.Validation {
		msg += fmt.Sprintf("; %s: %s", field, strings.Join(errs, ", "))
	}
	return msg
}

// notFoundContext annotates a not-found error with the entity it names.
func notFoundContext(err error, resource string, id int64) error {
	var re *stackmd.RequestError
	if errors.As(err, &re) && re.Kind == stackmd.KindNotFound {
		re.Resource = resource
		re.ID = id
	}
	return err
}

// listAll pages through a listing endpoint until the reported total is
// reached, returning the raw entity maps.
func (c *HTTPClient) listAll(ctx context.Context, op, path string) ([]map[string]any, error) {
	var out []map[string]any
	for offset := 0; ; offset += listPageSize {
		query := url.Values{
			"count":  {strconv.Itoa(listPageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		body, err := c.do(ctx, op, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}

		var resp struct {
			Data  []map[string]any `json:"data"`
			Total int              `json:"total"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &stackmd.RequestError{Kind: stackmd.KindServer, Operation: op, Err: err}
		}

		out = append(out, resp.Data...)
		if len(resp.Data) == 0 || len(out) >= resp.Total {
			return out, nil
		}
	}
}

func (c *HTTPClient) getEntity(ctx context.Context, op, path string) (map[string]any, error) {
	body, err := c.do(ctx, op, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeEntity(op, body)
}

func decodeEntity(op string, body []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &stackmd.RequestError{Kind: stackmd.KindServer, Operation: op, Err: err}
	}
	return m, nil
}

// ListShelves returns all shelves.
func (c *HTTPClient) ListShelves(ctx context.Context) ([]stackmd.Shelf, error) {
	raw, err := c.listAll(ctx, "list_shelves", "/api/shelves")
	if err != nil {
		return nil, err
	}
	shelves := make([]stackmd.Shelf, 0, len(raw))
	for _, m := range raw {
		shelves = append(shelves, normalizeShelf(m))
	}
	return shelves, nil
}

// ListBooks returns all books.
func (c *HTTPClient) ListBooks(ctx context.Context) ([]stackmd.Book, error) {
	raw, err := c.listAll(ctx, "list_books", "/api/books")
	if err != nil {
		return nil, err
	}
	books := make([]stackmd.Book, 0, len(raw))
	for _, m := range raw {
		books = append(books, normalizeBook(m))
	}
	return books, nil
}

// ListChapters returns all chapters.
func (c *HTTPClient) ListChapters(ctx context.Context) ([]stackmd.Chapter, error) {
	raw, err := c.listAll(ctx, "list_chapters", "/api/chapters")
	if err != nil {
		return nil, err
	}
	chapters := make([]stackmd.Chapter, 0, len(raw))
	for _, m := range raw {
		chapters = append(chapters, normalizeChapter(m))
	}
	return chapters, nil
}

// ListPages returns all pages.
func (c *HTTPClient) ListPages(ctx context.Context) ([]stackmd.Page, error) {
	raw, err := c.listAll(ctx, "list_pages", "/api/pages")
	if err != nil {
		return nil, err
	}
	pages := make([]stackmd.Page, 0, len(raw))
	for _, m := range raw {
		pages = append(pages, normalizePage(m))
	}
	return pages, nil
}

// GetBook returns a single book by remote id.
func (c *HTTPClient) GetBook(ctx context.Context, id int64) (*stackmd.Book, error) {
	m, err := c.getEntity(ctx, "get_book", fmt.Sprintf("/api/books/%d", id))
	if err != nil {
		return nil, notFoundContext(err, "book", id)
	}
	book := normalizeBook(m)
	return &book, nil
}

// GetPage returns a single page by remote id.
func (c *HTTPClient) GetPage(ctx context.Context, id int64) (*stackmd.Page, error) {
	m, err := c.getEntity(ctx, "get_page", fmt.Sprintf("/api/pages/%d", id))
	if err != nil {
		return nil, notFoundContext(err, "page", id)
	}
	page := normalizePage(m)
	return &page, nil
}

// CreateChapter creates a chapter inside a book.
func (c *HTTPClient) CreateChapter(ctx context.Context, req *stackmd.ChapterCreate) (*stackmd.Chapter, error) {
	body, err := c.do(ctx, "create_chapter", http.MethodPost, "/api/chapters", nil, req)
	if err != nil {
		return nil, err
	}
	m, err := decodeEntity("create_chapter", body)
	if err != nil {
		return nil, err
	}
	chapter := normalizeChapter(m)
	return &chapter, nil
}

// CreatePage creates a page inside a book (and chapter, if set).
func (c *HTTPClient) CreatePage(ctx context.Context, req *stackmd.PageCreate) (*stackmd.Page, error) {
	payload := map[string]any{
		"name":     req.Name,
		"markdown": req.Markdown,
	}
	// BookStack expects exactly one parent reference.
	if req.ChapterID != 0 {
		payload["chapter_id"] = req.ChapterID
	} else {
		payload["book_id"] = req.BookID
	}

	body, err := c.do(ctx, "create_page", http.MethodPost, "/api/pages", nil, payload)
	if err != nil {
		return nil, err
	}
	m, err := decodeEntity("create_page", body)
	if err != nil {
		return nil, err
	}
	page := normalizePage(m)
	return &page, nil
}

// UpdatePage overwrites a page's name and markdown content.
func (c *HTTPClient) UpdatePage(ctx context.Context, id int64, req *stackmd.PageUpdate) (*stackmd.Page, error) {
	body, err := c.do(ctx, "update_page", http.MethodPut, fmt.Sprintf("/api/pages/%d", id), nil, req)
	if err != nil {
		return nil, notFoundContext(err, "page", id)
	}
	m, err := decodeEntity("update_page", body)
	if err != nil {
		return nil, err
	}
	page := normalizePage(m)
	return &page, nil
}

// DeletePage deletes a remote page.
func (c *HTTPClient) DeletePage(ctx context.Context, id int64) error {
	_, err := c.do(ctx, "delete_page", http.MethodDelete, fmt.Sprintf("/api/pages/%d", id), nil, nil)
	return notFoundContext(err, "page", id)
}

// ExportPage exports a page's content in the given format.
func (c *HTTPClient) ExportPage(ctx context.Context, id int64, format stackmd.ExportFormat) ([]byte, error) {
	if !format.IsValid() {
		return nil, &stackmd.RequestError{
			Kind:      stackmd.KindValidation,
			Operation: "export_page",
			Message:   fmt.Sprintf("unknown export format %q", format),
		}
	}
	body, err := c.do(ctx, "export_page", http.MethodGet, fmt.Sprintf("/api/pages/%d/export/%s", id, format), nil, nil)
	if err != nil {
		return nil, notFoundContext(err, "page", id)
	}
	return body, nil
}

// Search runs a remote full-text search.
func (c *HTTPClient) Search(ctx context.Context, query string, page, count int) ([]stackmd.SearchResult, error) {
	if page <= 0 {
		page = 1
	}
	if count <= 0 {
		count = 20
	}
	q := url.Values{
		"query": {query},
		"page":  {strconv.Itoa(page)},
		"count": {strconv.Itoa(count)},
	}
	body, err := c.do(ctx, "search", http.MethodGet, "/api/search", q, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &stackmd.RequestError{Kind: stackmd.KindServer, Operation: "search", Err: err}
	}

	results := make([]stackmd.SearchResult, 0, len(resp.Data))
	for _, m := range resp.Data {
		results = append(results, normalizeSearchResult(m))
	}
	return results, nil
}
