// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/staranto/cinectl/internal/docs"
)

// Doc generator for packaging. The markdown pages embedded in internal/docs
// are canonical; this writes:
//   - docs/man/share/man1/cinectl-<cmd>.1
//   - docs/tldr/cinectl-<cmd>.md

func main() {
	var (
		repoRoot           string
		writeOnlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root (default current dir)")
	flag.BoolVar(&writeOnlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	manOutDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(repoRoot, "docs", "tldr")

	if err := os.MkdirAll(manOutDir, 0o755); err != nil {
		fatalf("creating man output dir: %v", err)
	}
	if err := os.MkdirAll(tldrOutDir, 0o755); err != nil {
		fatalf("creating tldr output dir: %v", err)
	}

	cmds := docs.Commands()
	if len(cmds) == 0 {
		fatalf("no command markdown embedded")
	}

	for _, cmd := range cmds {
		man, err := docs.Man(cmd)
		if err != nil {
			fatalf("rendering man page for %s: %v", cmd, err)
		}
		manPath := filepath.Join(manOutDir, fmt.Sprintf("cinectl-%s.1", cmd))
		if err := writeFileIfChanged(manPath, man, writeOnlyIfChanged); err != nil {
			fatalf("writing man page for %s: %v", cmd, err)
		}

		tldr, err := docs.TLDR(cmd)
		if err != nil {
			fatalf("building TLDR for %s: %v", cmd, err)
		}
		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("cinectl-%s.md", cmd))
		if err := writeFileIfChanged(tldrPath, []byte(tldr), writeOnlyIfChanged); err != nil {
			fatalf("writing TLDR for %s: %v", cmd, err)
		}
	}
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}

func writeFileIfChanged(path string, new []byte, onlyIfChanged bool) error {
	if !onlyIfChanged {
		return os.WriteFile(path, new, 0o644)
	}
	old, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return os.WriteFile(path, new, 0o644)
		}
		return err
	}
	if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(new)) {
		return nil
	}
	return os.WriteFile(path, new, 0o644)
}
