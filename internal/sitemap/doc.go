// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package sitemap builds the static sitemap.xml for the movie site from the
// current trending list and writes it to disk and, optionally, object
// storage.
package sitemap
