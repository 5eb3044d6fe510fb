// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package worker is the offline cache worker: it precaches a fixed asset list
// into a named store and answers GET requests cache first, then network,
// then with a synthetic 408 so callers always get a response.
package worker
