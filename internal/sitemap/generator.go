// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sitemap

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"github.com/staranto/cinectl/internal/tmdb"
)

// Source supplies the movie list. *tmdb.Client satisfies it.
type Source interface {
	Trending(ctx context.Context, window string) (*tmdb.Page, error)
}

// Generator runs the whole fetch, build and publish sequence once.
type Generator struct {
	Source  Source
	Builder Builder
	// Window is the trending window, day or week.
	Window string
	// Strict turns a response without a results array into an error instead
	// of a root-only sitemap.
	Strict  bool
	Targets []Publisher
}

// Result summarizes a successful run.
type Result struct {
	Movies  int
	Entries int
	Bytes   int
	Targets []string
}

// Run fetches, builds and publishes. Nothing is published unless the fetch
// and build both succeed, so a bad API response leaves existing output
// untouched.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	page, err := g.Source.Trending(ctx, g.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending movies: %w", err)
	}

	if !page.HasResults {
		if g.Strict {
			return nil, tmdb.ErrMissingResults
		}
		log.Warn("API response has no results; writing a root-only sitemap")
	}

	entries, err := g.Builder.Entries(page.Movies)
	if err != nil {
		return nil, err
	}
	doc, err := Render(entries)
	if err != nil {
		return nil, err
	}

	targets := g.Targets
	if len(targets) == 0 {
		targets = []Publisher{FileTarget{Path: DefaultPath}}
	}

	result := &Result{
		Movies:  len(page.Movies),
		Entries: len(entries),
		Bytes:   len(doc),
	}
	for _, t := range targets {
		if err := t.Publish(ctx, doc); err != nil {
			return nil, err
		}
		log.WithField("entries", len(entries)).Infof("published sitemap to %s", t)
		result.Targets = append(result.Targets, t.String())
	}

	return result, nil
}
