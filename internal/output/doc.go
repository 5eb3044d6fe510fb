// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output turns an API document into rows, then filters, transforms,
// sorts and renders them as a text table, JSON, YAML or the raw bytes.
package output
