// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sitemap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
)

// DefaultPath is where the site build expects the sitemap.
const DefaultPath = "./public/sitemap.xml"

// Publisher delivers a finished document somewhere.
type Publisher interface {
	Publish(ctx context.Context, doc []byte) error
	String() string
}

// FileTarget writes the document to a local path.
type FileTarget struct {
	Path string
}

func (t FileTarget) Publish(_ context.Context, doc []byte) error {
	return WriteFile(t.Path, doc)
}

func (t FileTarget) String() string {
	return t.Path
}

// WriteFile creates the parent directory if needed and replaces path with
// doc. The bytes go to a temp file in the same directory first and are
// renamed into place, so a crash never leaves a half written sitemap.
func WriteFile(path string, doc []byte) error {
	if path == "" {
		path = DefaultPath
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".sitemap-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	// Removing after a successful rename is a harmless no-op.
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil { //nolint:mnd
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	log.Debugf("wrote %d bytes to %s", len(doc), path)
	return nil
}
