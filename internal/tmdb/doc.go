// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package tmdb is a small client for The Movie Database v3 API covering the
// trending and search endpoints used by the sitemap generator and the browse
// shell.
package tmdb
