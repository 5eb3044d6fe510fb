// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cinectl/internal/attrs"
	"github.com/staranto/cinectl/internal/docs"
	"github.com/staranto/cinectl/internal/meta"
	"github.com/staranto/cinectl/internal/output"
	"github.com/staranto/cinectl/internal/tmdb"
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// ShortCircuitTLDR prints the tldr page for subcmd when --tldr is set and
// returns true so the caller can exit early.
func ShortCircuitTLDR(cmd *cli.Command, subcmd string) (bool, error) {
	if !cmd.Bool("tldr") {
		return false, nil
	}
	page, err := docs.TLDR(subcmd)
	if err != nil {
		return true, err
	}
	_, err = fmt.Fprint(Stdout(cmd), page)
	return true, err
}

// withTLDR adds --tldr to cmd and its subcommands. page names the doc page,
// which for a subcommand is its parent's.
func withTLDR(cmd *cli.Command, page string) {
	for _, sub := range cmd.Commands {
		withTLDR(sub, page)
	}
	if cmd.Action == nil {
		return
	}

	cmd.Flags = append(cmd.Flags, &cli.BoolFlag{
		Name:  "tldr",
		Usage: "show tldr page",
	})
	action := cmd.Action
	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		if done, err := ShortCircuitTLDR(cmd, page); done {
			return err
		}
		return action(ctx, cmd)
	}
}

// BuildAttrs starts from the default movie columns, merges --attrs and then
// applies the global transform spec.
func BuildAttrs(cmd *cli.Command) (attrs.AttrList, error) {
	al := attrs.Defaults()
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return nil, err
		}
	}
	al.SetGlobalTransformSpec()
	return al, nil
}

// NewClient builds a TMDB client from --apikey and --apiurl.
func NewClient(cmd *cli.Command) (*tmdb.Client, error) {
	opts := []tmdb.Option{}
	if u := cmd.String("apiurl"); u != "" {
		opts = append(opts, tmdb.WithBaseURL(u))
	}
	client, err := tmdb.NewClient(cmd.String("apikey"), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w (set --apikey, CINECTL_APIKEY or apikey in %s)", err, configName(cmd))
	}
	return client, nil
}

// WithTimeout bounds ctx by --timeout when it is set.
func WithTimeout(ctx context.Context, cmd *cli.Command) (context.Context, context.CancelFunc) {
	if d := cmd.Duration("timeout"); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// Stdout returns the writer results go to.
func Stdout(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

func configName(cmd *cli.Command) string {
	if src := GetMeta(cmd).Config.Source; src != "" {
		return src
	}
	return "cinectl.yaml"
}

// ListCommandBuilder constructs a cli.Command for the movie listing
// subcommands with the shared output flags and metadata wired in.
type ListCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Fetch     func(context.Context, *cli.Command, *tmdb.Client) (*tmdb.Page, error)
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (lcb *ListCommandBuilder) Build() *cli.Command {
	src := lcb.Meta.Config.Source
	flags := append([]cli.Flag{}, lcb.Flags...)
	flags = append(flags, NewAPIFlags(lcb.Name, src)...)
	flags = append(flags, NewGlobalFlags(lcb.Name, src)...)

	return &cli.Command{
		Name:      lcb.Name,
		Usage:     lcb.Usage,
		UsageText: lcb.UsageText,
		Metadata: map[string]any{
			"meta": lcb.Meta,
		},
		Flags:  flags,
		Action: lcb.run,
	}
}

func (lcb *ListCommandBuilder) run(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for %s %v", lcb.Name, cmd.Args().Slice())

	al, err := BuildAttrs(cmd)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al.String())

	client, err := NewClient(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := WithTimeout(ctx, cmd)
	defer cancel()

	page, err := lcb.Fetch(ctx, cmd, client)
	if err != nil {
		return err
	}
	if !page.HasResults {
		log.Warnf("%s response carried no results", lcb.Name)
	}

	return output.SliceDiceSpit(page.Raw, al, output.NewOptions(cmd), "results", Stdout(cmd))
}
