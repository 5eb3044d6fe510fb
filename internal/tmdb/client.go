// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tmdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/staranto/cinectl/internal/version"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	ImageBaseURL   = "https://image.tmdb.org/t/p"
)

var (
	ErrNoAPIKey          = errors.New("TMDB API key is not set")
	ErrInvalidWindow     = errors.New("time window must be day or week")
	ErrMalformedResponse = errors.New("malformed API response")
	ErrMissingResults    = errors.New("API response has no results")
)

// APIError is returned for any non-2xx response. Message carries TMDB's
// status_message when the body has one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("TMDB API returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("TMDB API returned %d: %s", e.StatusCode, e.Message)
}

// Page is one page of movie results.
type Page struct {
	Movies       []Movie
	Page         int
	TotalPages   int
	TotalResults int
	// HasResults is false when the document had no results array at all, as
	// opposed to an empty one.
	HasResults bool
	Raw        []byte
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at another API root, mostly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient replaces the default http.Client. No timeout is set by
// default; callers bound requests through the context.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Trending returns the trending movies for the given time window.
func (c *Client) Trending(ctx context.Context, window string) (*Page, error) {
	if window == "" {
		window = "day"
	}
	if window != "day" && window != "week" {
		return nil, fmt.Errorf("%q: %w", window, ErrInvalidWindow)
	}

	raw, err := c.get(ctx, "/trending/movie/"+window, nil)
	if err != nil {
		return nil, err
	}
	return ParsePage(raw)
}

// Search runs a title search. Pages are 1-based; page <= 0 means the first.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	q := url.Values{}
	q.Set("query", query)
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}

	raw, err := c.get(ctx, "/search/movie", q)
	if err != nil {
		return nil, err
	}
	return ParsePage(raw)
}

// get issues a single GET and buffers the whole body.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}
	log.Debugf("GET %s%s?%s", c.baseURL, path, q.Encode())
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if gjson.ValidBytes(doc.Bytes()) {
			apiErr.Message = gjson.GetBytes(doc.Bytes(), "status_message").String()
		}
		return nil, apiErr
	}

	return doc.Bytes(), nil
}

// ParsePage validates raw as JSON and extracts the results array. A missing
// results field yields an empty page with HasResults unset.
func ParsePage(raw []byte) (*Page, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrMalformedResponse
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return nil, fmt.Errorf("expected a JSON object: %w", ErrMalformedResponse)
	}

	page := &Page{
		Page:         int(doc.Get("page").Int()),
		TotalPages:   int(doc.Get("total_pages").Int()),
		TotalResults: int(doc.Get("total_results").Int()),
		Raw:          raw,
		Movies:       []Movie{},
	}

	// null, false, 0 and "" count as absent, same as a missing field.
	results := doc.Get("results")
	if !results.Exists() || falsy(results) {
		return page, nil
	}
	if !results.IsArray() {
		return nil, fmt.Errorf("results is not an array: %w", ErrMalformedResponse)
	}

	page.HasResults = true
	for _, r := range results.Array() {
		page.Movies = append(page.Movies, movieFromResult(r))
	}

	return page, nil
}

func falsy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.Number:
		return r.Num == 0
	case gjson.String:
		return r.Str == ""
	}
	return false
}

// redact keeps the API key out of transport errors, which embed the URL.
func redact(err error, secret string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &url.Error{
			Op:  uerr.Op,
			URL: strings.ReplaceAll(uerr.URL, secret, "REDACTED"),
			Err: uerr.Err,
		}
	}
	return err
}
