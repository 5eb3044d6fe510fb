// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package browse is an interactive terminal shell over trending and search
// results.
package browse
