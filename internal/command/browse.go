// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/staranto/cinectl/internal/browse"
	"github.com/staranto/cinectl/internal/meta"
	"github.com/staranto/cinectl/internal/output"
)

// isTerminal is swapped out by tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// BrowseCommandAction starts the interactive shell. Without a terminal it
// prints the trending table instead.
func BrowseCommandAction(ctx context.Context, cmd *cli.Command) error {
	client, err := NewClient(cmd)
	if err != nil {
		return err
	}

	if !isTerminal() {
		log.Debug("stdout is not a terminal; printing trending table")

		al, err := BuildAttrs(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := WithTimeout(ctx, cmd)
		defer cancel()

		page, err := client.Trending(ctx, cmd.String("window"))
		if err != nil {
			return err
		}
		return output.SliceDiceSpit(page.Raw, al, output.NewOptions(cmd), "results", Stdout(cmd))
	}

	return browse.Run(ctx, client, cmd.String("window"), os.Stdin, Stdout(cmd))
}

// BrowseCommandBuilder constructs the cli.Command for "browse".
func BrowseCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	flags := []cli.Flag{NewWindowFlag("browse", src)}
	flags = append(flags, NewAPIFlags("browse", src)...)
	flags = append(flags, NewGlobalFlags("browse", src)...)

	return &cli.Command{
		Name:      "browse",
		Usage:     "interactive movie browser",
		UsageText: `cinectl browse [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: BrowseCommandAction,
	}
}
