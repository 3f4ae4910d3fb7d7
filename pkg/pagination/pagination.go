package pagination

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage = 1
	// PerPage is fixed; clients choose the page, never its size.
	PerPage = 10
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// New builds Params for the given page number, clamping it to at least 1.
func New(page int) Params {
	if page < 1 {
		page = DefaultPage
	}
	return Params{
		Page:   page,
		Limit:  PerPage,
		Offset: (page - 1) * PerPage,
	}
}

// Parse extracts and validates the page query parameter
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	return New(page)
}

// Page is the list envelope returned by every index endpoint.
type Page[T any] struct {
	CurrentPage  int     `json:"current_page"`
	Data         []T     `json:"data"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	LastPage     int     `json:"last_page"`
	LastPageURL  string  `json:"last_page_url"`
	NextPageURL  *string `json:"next_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	PrevPageURL  *string `json:"prev_page_url"`
	To           *int    `json:"to"`
	Total        int64   `json:"total"`
}

// NewPage wraps one page of items. path is the absolute URL of the list endpoint.
func NewPage[T any](items []T, total int64, p Params, path string) Page[T] {
	if items == nil {
		items = []T{}
	}
	lastPage := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	if lastPage < 1 {
		lastPage = 1
	}
	page := Page[T]{
		CurrentPage:  p.Page,
		Data:         items,
		FirstPageURL: pageURL(path, 1),
		LastPage:     lastPage,
		LastPageURL:  pageURL(path, lastPage),
		Path:         path,
		PerPage:      p.Limit,
		Total:        total,
	}
	if len(items) > 0 {
		from := p.Offset + 1
		to := p.Offset + len(items)
		page.From, page.To = &from, &to
	}
	if p.Page < lastPage {
		next := pageURL(path, p.Page+1)
		page.NextPageURL = &next
	}
	if p.Page > 1 {
		prev := pageURL(path, p.Page-1)
		page.PrevPageURL = &prev
	}
	return page
}

// RequestPath returns the scheme://host/path of the current request without its query.
func RequestPath(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: c.Request.Host, Path: c.Request.URL.Path}
	return u.String()
}

func pageURL(path string, page int) string {
	return fmt.Sprintf("%s?page=%d", path, page)
}
