// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sitemap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/staranto/cinectl/internal/tmdb"
)

const (
	Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

	// DateLayout is the W3C date form used for lastmod.
	DateLayout = "2006-01-02"

	// DefaultMoviePath is prefixed to every movie slug.
	DefaultMoviePath = "/movie/"

	rootPriority = "1.0"
)

var (
	ErrNoDomain      = errors.New("site domain is not set")
	ErrInvalidDomain = errors.New("site domain must be an absolute http(s) URL")
)

// URLSet is the sitemap document root.
type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// URL is a single sitemap entry.
type URL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}

// Builder turns a movie list into a sitemap document.
type Builder struct {
	// Domain is the public site origin, e.g. https://movies.example.com.
	Domain string
	// MoviePath is the path prefix for movie pages. Defaults to /movie/.
	MoviePath string
	// Now is the clock used for lastmod. Defaults to time.Now.
	Now func() time.Time
}

// NormalizeDomain validates a site origin and strips any trailing slash. A
// bare host is assumed to be https.
func NormalizeDomain(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", ErrNoDomain
	}
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}

	u, err := url.Parse(domain)
	if err != nil {
		return "", fmt.Errorf("%s: %w", domain, ErrInvalidDomain)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s: %w", domain, ErrInvalidDomain)
	}

	return strings.TrimSuffix(domain, "/"), nil
}

// Entries returns the sitemap entries: the site root first, then one entry
// per movie in input order. Movies whose slug is empty are skipped and a
// repeated slug is only listed once.
func (b Builder) Entries(movies []tmdb.Movie) ([]URL, error) {
	domain, err := NormalizeDomain(b.Domain)
	if err != nil {
		return nil, err
	}

	moviePath := b.MoviePath
	if moviePath == "" {
		moviePath = DefaultMoviePath
	}
	if !strings.HasPrefix(moviePath, "/") {
		moviePath = "/" + moviePath
	}
	if !strings.HasSuffix(moviePath, "/") {
		moviePath += "/"
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	lastMod := now().UTC().Format(DateLayout)

	entries := make([]URL, 0, len(movies)+1)
	entries = append(entries, URL{Loc: domain + "/", Priority: rootPriority})

	seen := make(map[string]bool, len(movies))
	for _, m := range movies {
		slug := Slug(m.Title)
		if slug == "" {
			log.WithField("id", m.ID).Warnf("skipping movie with no usable slug: %q", m.Title)
			continue
		}
		if seen[slug] {
			log.WithField("id", m.ID).Warnf("skipping duplicate slug %s: %q", slug, m.Title)
			continue
		}
		seen[slug] = true

		entries = append(entries, URL{
			Loc:     domain + moviePath + slug,
			LastMod: lastMod,
		})
	}

	return entries, nil
}

// Build renders the complete sitemap document, XML declaration included.
func (b Builder) Build(movies []tmdb.Movie) ([]byte, error) {
	entries, err := b.Entries(movies)
	if err != nil {
		return nil, err
	}
	return Render(entries)
}

// Render encodes entries as a sitemap document.
func Render(entries []URL) ([]byte, error) {
	var doc bytes.Buffer
	doc.WriteString(xml.Header)

	enc := xml.NewEncoder(&doc)
	enc.Indent("", "  ")
	if err := enc.Encode(URLSet{XMLNS: Namespace, URLs: entries}); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	doc.WriteString("\n")

	return doc.Bytes(), nil
}
