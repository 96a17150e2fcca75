// Package pager drives token-based paging over remote list endpoints.
package pager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// ErrCursorStalled is returned when the remote hands back the token it was given
var ErrCursorStalled = errors.New("pager: continuation token did not advance")

// Page is one page of a remote list
type Page[T any] struct {
	Items     []T
	NextToken string
	HasNext   bool
}

// FetchFunc fetches the page that follows token. The first call receives "".
type FetchFunc[T any] func(ctx context.Context, token string) (Page[T], error)

// Cursor walks a remote list one page per Next call.
// It is not restartable; create a new Cursor to start over.
type Cursor[T any] struct {
	fetch     FetchFunc[T]
	token     string
	page      Page[T]
	err       error
	exhausted bool
	pages     int
}

// New creates a cursor positioned before the first page
func New[T any](fetch FetchFunc[T]) *Cursor[T] {
	return &Cursor[T]{fetch: fetch}
}

// Next fetches the next page and reports whether one is available.
// It returns false once the list is exhausted or a fetch fails.
func (c *Cursor[T]) Next(ctx context.Context) bool {
	if c.exhausted || c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		return false
	}

	page, err := c.fetch(ctx, c.token)
	if err != nil {
		c.err = err
		return false
	}
	c.pages++

	if page.HasNext && page.NextToken == c.token {
		c.err = fmt.Errorf("%w: token %q after page %d", ErrCursorStalled, c.token, c.pages)
		return false
	}

	c.page = page
	if page.HasNext {
		c.token = page.NextToken
	} else {
		c.exhausted = true
	}
	return true
}

// Page returns the page fetched by the last successful Next
func (c *Cursor[T]) Page() Page[T] {
	return c.page
}

// Items is shorthand for Page().Items
func (c *Cursor[T]) Items() []T {
	return c.page.Items
}

// Err returns the error that stopped the cursor, if any
func (c *Cursor[T]) Err() error {
	return c.err
}

// Token returns the token the next fetch will send
func (c *Cursor[T]) Token() string {
	return c.token
}

// Exhausted reports whether the remote signalled the last page
func (c *Cursor[T]) Exhausted() bool {
	return c.exhausted
}

// Pages returns how many pages were fetched
func (c *Cursor[T]) Pages() int {
	return c.pages
}

// Collect drains a cursor into a single slice
func Collect[T any](ctx context.Context, fetch FetchFunc[T]) ([]T, error) {
	var all []T
	c := New(fetch)
	for c.Next(ctx) {
		all = append(all, c.Items()...)
	}
	return all, c.Err()
}

// OffsetToken encodes a numeric offset as a continuation token
func OffsetToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return strconv.Itoa(offset)
}

// ParseOffset decodes a token produced by OffsetToken
func ParseOffset(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("pager: invalid offset token %q", token)
	}
	return n, nil
}
