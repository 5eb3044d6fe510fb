// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sitemap

import (
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonSlugRegex    = regexp.MustCompile(`[^\w-]+`)
)

// Slug derives the URL path segment for a title: lowercase, whitespace runs
// become hyphens, then anything outside [A-Za-z0-9_-] is dropped. The two
// steps run in that order, so "Spider-Man: No Way Home!" becomes
// "spider-man-no-way-home".
func Slug(title string) string {
	s := strings.ToLower(title)
	s = whitespaceRegex.ReplaceAllString(s, "-")
	return nonSlugRegex.ReplaceAllString(s, "")
}
