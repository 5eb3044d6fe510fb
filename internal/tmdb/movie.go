// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package tmdb

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Movie is the subset of a TMDB movie result that cinectl cares about. Only
// Title is guaranteed by the API; everything else may be zero.
type Movie struct {
	ID          int64   `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Overview    string  `json:"overview,omitempty" yaml:"overview,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average" yaml:"vote_average"`
	Popularity  float64 `json:"popularity" yaml:"popularity"`
	PosterPath  string  `json:"poster_path,omitempty" yaml:"poster_path,omitempty"`
}

// Year returns the four digit release year, or "" when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// PosterURL returns the poster image URL at the given TMDB size (w185, w500,
// original...), or "" when the movie has no poster.
func (m Movie) PosterURL(size string) string {
	if m.PosterPath == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return ImageBaseURL + "/" + size + "/" + strings.TrimPrefix(m.PosterPath, "/")
}

// movieFromResult maps one element of a results array. TV entries carry
// "name" instead of "title", so fall back to it.
func movieFromResult(r gjson.Result) Movie {
	title := r.Get("title").String()
	if title == "" {
		title = r.Get("name").String()
	}
	return Movie{
		ID:          r.Get("id").Int(),
		Title:       title,
		Overview:    r.Get("overview").String(),
		ReleaseDate: r.Get("release_date").String(),
		VoteAverage: r.Get("vote_average").Float(),
		Popularity:  r.Get("popularity").Float(),
		PosterPath:  r.Get("poster_path").String(),
	}
}
