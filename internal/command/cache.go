// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cinectl/internal/cacheutil"
	"github.com/staranto/cinectl/internal/meta"
	"github.com/staranto/cinectl/internal/output"
)

// CacheLsCommandAction lists the named stores in the cache directory.
func CacheLsCommandAction(_ context.Context, cmd *cli.Command) error {
	buckets, err := cacheutil.List()
	if err != nil {
		return err
	}

	rows := make([]map[string]interface{}, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, map[string]interface{}{
			"name":     b.Name,
			"files":    b.Files,
			"bytes":    b.Bytes,
			"size":     humanize.Bytes(uint64(b.Bytes)),
			"modified": humanize.Time(b.ModTime),
			"mtime":    b.ModTime.UTC().Format(time.RFC3339),
		})
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	al := reportAttrs([]string{"name", "files", "size", "modified"}, "bytes", "mtime")
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return err
		}
	}
	al.SetGlobalTransformSpec()

	return output.SliceDiceSpit(raw, al, output.NewOptions(cmd), "", Stdout(cmd))
}

// CachePurgeCommandAction removes cache files older than --hours.
func CachePurgeCommandAction(_ context.Context, cmd *cli.Command) error {
	hours := int(cmd.Int("hours"))
	if hours < 0 {
		return fmt.Errorf("hours must be 0 or more")
	}

	n, err := cacheutil.Purge(hours)
	if err != nil {
		return err
	}

	if dir, ok := cacheutil.Dir(); ok {
		fmt.Fprintf(Stdout(cmd), "removed %d %s from %s\n", n, plural(n, "file"), dir)
	}
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// CacheCommandBuilder constructs the "cache" command and its subcommands.
func CacheCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	return &cli.Command{
		Name:      "cache",
		Usage:     "inspect and clean the local cache",
		UsageText: `cinectl cache <ls|purge> [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "list cache stores",
				UsageText: `cinectl cache ls [options]`,
				Metadata: map[string]any{
					"meta": meta,
				},
				Flags:  NewGlobalFlags("cache", src),
				Action: CacheLsCommandAction,
			},
			{
				Name:      "purge",
				Usage:     "remove cached entries older than --hours",
				UsageText: `cinectl cache purge [options]`,
				Metadata: map[string]any{
					"meta": meta,
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "hours",
						Usage: "age in hours past which entries are removed, 0 does nothing",
						Sources: cli.NewValueSourceChain(
							yaml.YAML("cache.clean", altsrc.StringSourcer(src)),
						),
						Value: 24,
					},
				},
				Action: CachePurgeCommandAction,
			},
		},
	}
}
