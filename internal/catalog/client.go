package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/entities"
)

const objectMediaType = "application/vnd.pgrst.object+json"

// Client queries the hosted catalog's REST interface.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Catalog = (*Client)(nil)

// NewClient constructs a catalog client. anonKey is the public API key sent
// with every request.
func NewClient(baseURL, anonKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("catalog"),
	}
}

// FetchPublishedBooks returns one page of published books matching q.
func (c *Client) FetchPublishedBooks(ctx context.Context, q Query) Page {
	q = q.Normalized()

	params := url.Values{}
	params.Set("select", "*")
	params.Set("status", "eq."+string(entities.BookStatusPublished))
	if q.Language != "" {
		params.Set("language", "eq."+string(q.Language))
	}
	if q.Category != "" {
		params.Set("category", "eq."+q.Category)
	}
	if q.Search != "" {
		pattern := quote("*" + q.Search + "*")
		params.Set("or", fmt.Sprintf("(title.ilike.%s,description.ilike.%s,author.ilike.%s)", pattern, pattern, pattern))
	}
	if len(q.Tags) > 0 {
		quoted := make([]string, len(q.Tags))
		for i, tag := range q.Tags {
			quoted[i] = quote(tag)
		}
		params.Set("tags", "ov.{"+strings.Join(quoted, ",")+"}")
	}
	params.Set("order", q.SortBy+"."+q.SortOrder)

	from, to := q.Range()
	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/books", params, nil, "")
	if err != nil {
		return errorPage(q, c.requestError("fetch published books", err))
	}
	req.Header.Set("Range-Unit", "items")
	req.Header.Set("Range", fmt.Sprintf("%d-%d", from, to))
	req.Header.Set("Prefer", "count=exact")

	var books []entities.Book
	resp, apiErr := c.do(req, &books)
	if apiErr != nil {
		c.logger.Warn("Failed to fetch published books", zap.String("message", apiErr.Message), zap.String("code", apiErr.Code))
		return errorPage(q, apiErr)
	}

	total := len(books)
	if parsed, ok := parseContentRangeTotal(resp.Header.Get("Content-Range")); ok {
		total = parsed
	}
	return newPage(q, books, total)
}

// FetchBookByID returns a single published book.
func (c *Client) FetchBookByID(ctx context.Context, id string) Result[entities.Book] {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("id", "eq."+id)
	params.Set("status", "eq."+string(entities.BookStatusPublished))

	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/books", params, nil, "")
	if err != nil {
		return failed[entities.Book](c.requestError("fetch book", err))
	}
	req.Header.Set("Accept", objectMediaType)

	var book entities.Book
	if _, apiErr := c.do(req, &book); apiErr != nil {
		c.logger.Warn("Failed to fetch book", zap.String("book_id", id), zap.String("message", apiErr.Message))
		return failed[entities.Book](apiErr)
	}
	return Result[entities.Book]{Data: book}
}

// FetchBookTranslations returns every published book in a translation
// group, ordered by language.
func (c *Client) FetchBookTranslations(ctx context.Context, groupID string) Result[[]entities.Book] {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("translation_group_id", "eq."+groupID)
	params.Set("status", "eq."+string(entities.BookStatusPublished))
	params.Set("order", "language.asc")

	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/books", params, nil, "")
	if err != nil {
		return failed[[]entities.Book](c.requestError("fetch translations", err))
	}

	var books []entities.Book
	if _, apiErr := c.do(req, &books); apiErr != nil {
		return failed[[]entities.Book](apiErr)
	}
	if books == nil {
		books = []entities.Book{}
	}
	return Result[[]entities.Book]{Data: books}
}

// FetchBooksByCategory is FetchPublishedBooks restricted to one category.
func (c *Client) FetchBooksByCategory(ctx context.Context, category string, q Query) Page {
	q.Category = category
	return c.FetchPublishedBooks(ctx, q)
}

// SearchBooks is FetchPublishedBooks with a free-text search.
func (c *Client) SearchBooks(ctx context.Context, text string, q Query) Page {
	q.Search = text
	return c.FetchPublishedBooks(ctx, q)
}

// FetchCategories returns the published book count per category. It uses the
// server-side aggregate and falls back to grouping the category column
// client-side when the aggregate is unavailable.
func (c *Client) FetchCategories(ctx context.Context) Result[[]CategoryCount] {
	req, err := c.newRequest(ctx, http.MethodPost, "/rest/v1/rpc/get_book_categories", nil, []byte("{}"), "")
	if err == nil {
		var counts []CategoryCount
		_, apiErr := c.do(req, &counts)
		if apiErr == nil {
			if counts == nil {
				counts = []CategoryCount{}
			}
			return Result[[]CategoryCount]{Data: counts}
		}
		c.logger.Info("Category aggregate unavailable, grouping locally", zap.String("message", apiErr.Message))
	}

	params := url.Values{}
	params.Set("select", "category")
	params.Set("status", "eq."+string(entities.BookStatusPublished))
	req, err = c.newRequest(ctx, http.MethodGet, "/rest/v1/books", params, nil, "")
	if err != nil {
		return failed[[]CategoryCount](c.requestError("fetch categories", err))
	}

	var rows []struct {
		Category string `json:"category"`
	}
	if _, apiErr := c.do(req, &rows); apiErr != nil {
		return failed[[]CategoryCount](apiErr)
	}

	categories := make([]string, len(rows))
	for i, row := range rows {
		categories[i] = row.Category
	}
	return Result[[]CategoryCount]{Data: countCategories(categories)}
}

// FetchProfile returns the profile of the user owning accessToken.
func (c *Client) FetchProfile(ctx context.Context, accessToken, userID string) Result[Profile] {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("id", "eq."+userID)

	req, err := c.newRequest(ctx, http.MethodGet, "/rest/v1/profiles", params, nil, accessToken)
	if err != nil {
		return failed[Profile](c.requestError("fetch profile", err))
	}
	req.Header.Set("Accept", objectMediaType)

	var profile Profile
	if _, apiErr := c.do(req, &profile); apiErr != nil {
		return failed[Profile](apiErr)
	}
	return Result[Profile]{Data: profile}
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body []byte, accessToken string) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("catalog URL is not configured")
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}

	token := accessToken
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) requestError(op string, err error) *APIError {
	c.logger.Warn(op+" failed", zap.Error(err))
	return &APIError{Message: err.Error()}
}

// do sends req and decodes a 2xx body into out. Anything else becomes an
// *APIError built from the response body when it has one.
func (c *Client) do(req *http.Request, out any) (*http.Response, *APIError) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Message string `json:"message"`
			Code    string `json:"code"`
			Details any    `json:"details"`
			Hint    any    `json:"hint"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Message
		if msg == "" {
			msg = resp.Status
		}
		code := strings.TrimSpace(errResp.Code)
		if code == "" {
			code = strconv.Itoa(resp.StatusCode)
		}
		return resp, &APIError{Message: msg, Code: code, Details: errResp.Details}
	}

	if out == nil {
		return resp, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp, &APIError{Message: fmt.Sprintf("decode response: %v", err), Code: "decode_error"}
	}
	return resp, nil
}

// parseContentRangeTotal reads the total from "0-19/57" or "*/0".
func parseContentRangeTotal(header string) (int, bool) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 {
		return 0, false
	}
	total, err := strconv.Atoi(strings.TrimSpace(header[idx+1:]))
	if err != nil {
		return 0, false
	}
	return total, true
}

// quote wraps a filter value in double quotes so reserved characters such as
// commas and parentheses are taken literally.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

func countCategories(categories []string) []CategoryCount {
	counts := map[string]int{}
	for _, c := range categories {
		counts[c]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for category, n := range counts {
		out = append(out, CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
