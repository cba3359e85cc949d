// Package lookup searches an external catalogue for book metadata that can
// pre-fill a new book.
package lookup

import (
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
)

const (
	DefaultBaseURL = "https://openlibrary.org"
	coverBaseURL   = "https://covers.openlibrary.org/b/id/"
	defaultLimit   = 10
	maxLimit       = 50
)

// ErrEmptyQuery is returned when Search is called with a blank query.
var ErrEmptyQuery = errors.New("lookup: query is required")

// Candidate is one search hit. Missing metadata stays nil.
type Candidate struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Year     *int    `json:"year"`
	Pages    *int    `json:"pages"`
	ISBN     *string `json:"isbn"`
	CoverURL *string `json:"cover_url"`
}

// Submission returns the candidate as a create-book request body. It still
// has to go through book normalization.
func (c Candidate) Submission() map[string]any {
	raw := map[string]any{
		"title":  c.Title,
		"author": c.Author,
	}
	if c.Pages != nil {
		raw["pages"] = float64(*c.Pages)
	}
	if c.ISBN != nil {
		raw["isbn"] = *c.ISBN
	}
	if c.CoverURL != nil {
		raw["cover_url"] = *c.CoverURL
	}
	return raw
}

// Searcher is what the HTTP layer needs; *OpenLibrary implements it.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// OpenLibrary queries the Open Library search API.
type OpenLibrary struct {
	baseURL string
	client  *http.Client
	limit   int
}

func NewOpenLibrary(baseURL string, client *http.Client) *OpenLibrary {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenLibrary{baseURL: baseURL, client: client, limit: defaultLimit}
}

// WithLimit returns a copy that asks for at most n results.
func (o *OpenLibrary) WithLimit(n int) *OpenLibrary {
	cp := *o
	switch {
	case n <= 0:
		cp.limit = defaultLimit
	case n > maxLimit:
		cp.limit = maxLimit
	default:
		cp.limit = n
	}
	return &cp
}

type searchResp struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear *int     `json:"first_publish_year"`
		Pages            *int     `json:"number_of_pages_median"`
		ISBN             []string `json:"isbn"`
		CoverID          *int     `json:"cover_i"`
	} `json:"docs"`
}

func (o *OpenLibrary) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(o.limit))
	q.Set("fields", "title,author_name,first_publish_year,number_of_pages_median,isbn,cover_i")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("lookup: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lookup: upstream status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed searchResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("lookup: decode: %w", err)
	}

	out := make([]Candidate, 0, len(parsed.Docs))
	for _, d := range parsed.Docs {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			continue
		}
		c := Candidate{
			Title:  title,
			Author: "Unknown",
			Year:   d.FirstPublishYear,
			Pages:  d.Pages,
		}
		if len(d.AuthorName) > 0 && strings.TrimSpace(d.AuthorName[0]) != "" {
			c.Author = strings.TrimSpace(d.AuthorName[0])
		}
		if isbn := pickISBN(d.ISBN); isbn != "" {
			c.ISBN = &isbn
		}
		if d.CoverID != nil && *d.CoverID > 0 {
			cover := coverBaseURL + strconv.Itoa(*d.CoverID) + "-M.jpg"
			c.CoverURL = &cover
		}
		out = append(out, c)
	}
	return out, nil
}

// pickISBN prefers a 13-digit ISBN.
func pickISBN(list []string) string {
	first := ""
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(s) == 13 {
			return s
		}
		if first == "" {
			first = s
		}
	}
	return first
}
