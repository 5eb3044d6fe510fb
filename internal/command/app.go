// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cinectl/internal/config"
	"github.com/staranto/cinectl/internal/meta"
)

func InitApp(_ context.Context, args []string) (*cli.Command, error) {
	// The arg[1] immediately following the binary (arg[0]) is the cinectl
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	cfg, err := config.Load(ns)
	if err != nil {
		log.WithError(err).Debug("running without a config file")
	}
	meta := meta.Meta{
		Args:   args,
		Config: cfg,
	}

	app := &cli.Command{
		Name:  "cinectl",
		Usage: "movie site toolbox: sitemap, offline cache and TMDB queries",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "cinectl version info",
				HideDefault: true,
			},
		},
		Metadata: map[string]any{
			"meta": meta,
		},
	}

	app.Commands = append(app.Commands,
		BrowseCommandBuilder(meta),
		CacheCommandBuilder(meta),
		CompletionCommandBuilder(meta),
		FetchCommandBuilder(meta),
		PrecacheCommandBuilder(meta),
		SearchCommandBuilder(meta),
		ServeCommandBuilder(meta),
		SitemapCommandBuilder(meta),
		TrendingCommandBuilder(meta),
	)

	for _, cmd := range app.Commands {
		if cmd.Name != "completion" {
			withTLDR(cmd, cmd.Name)
		}
	}

	// Make sure flags are sorted for the --help text.
	var sortFlags func(cmds []*cli.Command)
	sortFlags = func(cmds []*cli.Command) {
		for _, cmd := range cmds {
			sort.Slice(cmd.Flags, func(i, j int) bool {
				return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
			})
			sortFlags(cmd.Commands)
		}
	}
	sortFlags(app.Commands)

	return app, nil
}
