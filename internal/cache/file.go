// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/apex/log"

	"github.com/staranto/cinectl/internal/cacheutil"
)

// File is a Storage persisted under the cinectl cache directory, one
// subdirectory per store name. Entries survive across runs, like a browser's
// cache storage.
type File struct{}

func (File) Open(_ context.Context, name string) (Store, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	if !cacheutil.Enabled() {
		return nil, cacheutil.ErrDisabled
	}
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil {
		return nil, err
	} else if !ok {
		return nil, cacheutil.ErrDisabled
	}
	return &fileStore{name: name}, nil
}

type fileStore struct {
	name string
}

func (s *fileStore) Match(_ context.Context, key string) (*Entry, bool, error) {
	raw, ok := cacheutil.Read([]string{s.name}, key)
	if !ok {
		return nil, false, nil
	}
	log.Debugf("cache file %s for %s", raw.Path, key)

	var e Entry
	if err := e.UnmarshalBinary(raw.Data); err != nil {
		return nil, false, fmt.Errorf("%s: %w", raw.Path, err)
	}
	return &e, true, nil
}

func (s *fileStore) Put(_ context.Context, key string, e *Entry) error {
	data, err := e.MarshalBinary()
	if err != nil {
		return err
	}
	return cacheutil.Write([]string{s.name}, key, data)
}
