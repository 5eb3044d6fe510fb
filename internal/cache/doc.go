// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache provides named response stores, in memory or file based,
// keyed by request URL. Stores are filled once and read many times; nothing
// here evicts.
package cache
