// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cinectl/internal/meta"
	"github.com/staranto/cinectl/internal/tmdb"
)

var ErrNoQuery = errors.New("search needs a query")

// TrendingCommandBuilder constructs the cli.Command for "trending".
func TrendingCommandBuilder(meta meta.Meta) *cli.Command {
	lcb := &ListCommandBuilder{
		Name:      "trending",
		Usage:     "list trending movies",
		UsageText: `cinectl trending [options]`,
		Meta:      meta,
		Flags: []cli.Flag{
			NewWindowFlag("trending", meta.Config.Source),
		},
		Fetch: func(ctx context.Context, cmd *cli.Command, client *tmdb.Client) (*tmdb.Page, error) {
			return client.Trending(ctx, cmd.String("window"))
		},
	}
	return lcb.Build()
}

// SearchCommandBuilder constructs the cli.Command for "search". All
// positional args are joined into the query.
func SearchCommandBuilder(meta meta.Meta) *cli.Command {
	lcb := &ListCommandBuilder{
		Name:      "search",
		Usage:     "search movies by title",
		UsageText: `cinectl search [options] <query>`,
		Meta:      meta,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Usage:   "result page, starting at 1",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("search.page", altsrc.StringSourcer(meta.Config.Source)),
				),
				Value: 1,
				Validator: func(value int) error {
					if value < 1 {
						return errors.New("page must be 1 or more")
					}
					return nil
				},
			},
		},
		Fetch: func(ctx context.Context, cmd *cli.Command, client *tmdb.Client) (*tmdb.Page, error) {
			query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
			if query == "" {
				return nil, ErrNoQuery
			}
			return client.Search(ctx, query, int(cmd.Int("page")))
		},
	}
	return lcb.Build()
}
