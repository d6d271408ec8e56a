// Package catalog is the query facade over the hosted books catalog.
//
// Every operation returns a result value carrying either data or an
// *APIError. Failures never cross the facade as Go errors, so callers can
// render an empty list with a retry affordance without branching on error
// types.
package catalog

import (
	"context"
	"strings"

	"github.com/khaleelElias/YA/internal/entities"
	"github.com/khaleelElias/YA/internal/errs"
)

const (
	DefaultPageSize  = 20
	DefaultSortBy    = "published_at"
	DefaultSortOrder = "desc"
)

var sortFields = map[string]struct{}{
	"title":        {},
	"created_at":   {},
	"published_at": {},
}

// Query is a filter, sort and page request. Status is always "published".
type Query struct {
	Language  entities.Language `json:"language,omitempty" form:"language"`
	Category  string            `json:"category,omitempty" form:"category"`
	Search    string            `json:"search,omitempty" form:"search"`
	Tags      []string          `json:"tags,omitempty" form:"tags"`
	Page      int               `json:"page" form:"page"`
	PageSize  int               `json:"pageSize" form:"pageSize"`
	SortBy    string            `json:"sortBy,omitempty" form:"sortBy"`
	SortOrder string            `json:"sortOrder,omitempty" form:"sortOrder"`
}

// Normalized returns q with defaults applied and unknown sort values replaced.
func (q Query) Normalized() Query {
	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if _, ok := sortFields[q.SortBy]; !ok {
		q.SortBy = DefaultSortBy
	}
	q.SortOrder = strings.ToLower(q.SortOrder)
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		q.SortOrder = DefaultSortOrder
	}
	q.Search = strings.TrimSpace(q.Search)

	tags := q.Tags[:0:0]
	for _, tag := range q.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	q.Tags = tags
	return q
}

// Range returns the inclusive row range addressed by the page.
func (q Query) Range() (from, to int) {
	from = q.Page * q.PageSize
	return from, from + q.PageSize - 1
}

// APIError is a normalized catalog failure.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap lets callers holding an *APIError as an error test for errs.ErrQueryFailed.
func (e *APIError) Unwrap() error {
	return errs.ErrQueryFailed
}

// Page is one page of published books.
type Page struct {
	Items    []entities.Book `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	HasMore  bool            `json:"hasMore"`
	Error    *APIError       `json:"error,omitempty"`
}

func errorPage(q Query, apiErr *APIError) Page {
	return Page{Items: []entities.Book{}, Page: q.Page, PageSize: q.PageSize, Error: apiErr}
}

func newPage(q Query, items []entities.Book, total int) Page {
	if items == nil {
		items = []entities.Book{}
	}
	_, to := q.Range()
	return Page{
		Items:    items,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		HasMore:  to < total-1,
	}
}

// Result carries a single value or an error.
type Result[T any] struct {
	Data  T         `json:"data"`
	Error *APIError `json:"error,omitempty"`
}

// OK reports whether the result holds data.
func (r Result[T]) OK() bool {
	return r.Error == nil
}

func failed[T any](apiErr *APIError) Result[T] {
	return Result[T]{Error: apiErr}
}

// CategoryCount is the number of published books in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type UserRole string

const (
	RoleReader  UserRole = "reader"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Profile is the public profile of a signed-in user.
type Profile struct {
	ID                string            `json:"id"`
	Role              UserRole          `json:"role"`
	DisplayName       *string           `json:"display_name"`
	PreferredLanguage entities.Language `json:"preferred_language"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

// Catalog is the read side of the hosted catalog.
type Catalog interface {
	FetchPublishedBooks(ctx context.Context, q Query) Page
	FetchBookByID(ctx context.Context, id string) Result[entities.Book]
	FetchBookTranslations(ctx context.Context, groupID string) Result[[]entities.Book]
	FetchBooksByCategory(ctx context.Context, category string, q Query) Page
	SearchBooks(ctx context.Context, text string, q Query) Page
	FetchCategories(ctx context.Context) Result[[]CategoryCount]
}
