// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
)

var ErrInvalidName = errors.New("invalid cache name")

// Storage opens named stores, creating them on first use.
type Storage interface {
	Open(ctx context.Context, name string) (Store, error)
}

// Store is a single named cache. Match reports a miss with ok == false and a
// nil error.
type Store interface {
	Match(ctx context.Context, key string) (entry *Entry, ok bool, err error)
	Put(ctx context.Context, key string, entry *Entry) error
}
