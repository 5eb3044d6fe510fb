// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package docs embeds the per-command markdown pages and renders them as man
// pages and tldr summaries.
package docs
