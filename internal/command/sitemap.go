// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cinectl/internal/aws"
	"github.com/staranto/cinectl/internal/meta"
	"github.com/staranto/cinectl/internal/sitemap"
)

// SitemapCommandAction fetches trending movies and publishes sitemap.xml to
// the local file and, when a bucket is given, to S3.
func SitemapCommandAction(ctx context.Context, cmd *cli.Command) error {
	log.Debugf("Executing action for sitemap %v", cmd.Args().Slice())

	domain, err := sitemap.NormalizeDomain(cmd.String("domain"))
	if err != nil {
		return fmt.Errorf("%w (set --domain, CINECTL_DOMAIN or domain in %s)", err, configName(cmd))
	}

	client, err := NewClient(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := WithTimeout(ctx, cmd)
	defer cancel()

	targets := []sitemap.Publisher{sitemap.FileTarget{Path: cmd.String("file")}}
	if bucket := cmd.String("s3-bucket"); bucket != "" {
		t, err := newS3Target(ctx, cmd, bucket)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	g := &sitemap.Generator{
		Source: client,
		Builder: sitemap.Builder{
			Domain:    domain,
			MoviePath: cmd.String("movie-path"),
		},
		Window:  cmd.String("window"),
		Strict:  cmd.Bool("strict"),
		Targets: targets,
	}

	result, err := g.Run(ctx)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"movies":  result.Movies,
		"entries": result.Entries,
		"bytes":   result.Bytes,
	}).Info("sitemap generated")

	if !cmd.Bool("quiet") {
		for _, t := range result.Targets {
			fmt.Fprintf(Stdout(cmd), "%s (%d urls)\n", t, result.Entries)
		}
	}

	return nil
}

func newS3Target(ctx context.Context, cmd *cli.Command, bucket string) (sitemap.S3Target, error) {
	cfg, err := aws.LoadAWSConfig(ctx,
		aws.WithProfile(cmd.String("aws-profile")),
		aws.WithRegion(cmd.String("s3-region")),
	)
	if err != nil {
		return sitemap.S3Target{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return sitemap.S3Target{
		Client:       aws.NewS3(cfg, aws.WithS3Endpoint(cmd.String("s3-endpoint"))),
		Bucket:       bucket,
		Key:          cmd.String("s3-key"),
		CacheControl: cmd.String("cache-control"),
	}, nil
}

// SitemapCommandBuilder constructs the cli.Command for "sitemap".
func SitemapCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	return &cli.Command{
		Name:      "sitemap",
		Usage:     "generate sitemap.xml from trending movies",
		UsageText: `cinectl sitemap [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: append([]cli.Flag{
			NameSpacedValueChainFlagFromConfigFile("sitemap", src, &cli.StringFlag{
				Name:    "domain",
				Aliases: []string{"d"},
				Usage:   "public site origin, e.g. https://movies.example.com",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("CINECTL_DOMAIN"),
				),
			}),
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"F"},
				Usage:   "sitemap output path",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("sitemap.file", altsrc.StringSourcer(src)),
				),
				Value: sitemap.DefaultPath,
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator)
				},
			},
			&cli.StringFlag{
				Name:  "movie-path",
				Usage: "path prefix for movie pages",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("sitemap.movie-path", altsrc.StringSourcer(src)),
				),
				Value: sitemap.DefaultMoviePath,
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "do not list published targets",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "fail when the API response has no results instead of writing a root-only sitemap",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("sitemap.strict", altsrc.StringSourcer(src)),
				),
			},
			NewWindowFlag("sitemap", src),
		}, append(newS3Flags(src), NewAPIFlags("sitemap", src)...)...),
		Action: SitemapCommandAction,
	}
}

func newS3Flags(src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "aws-profile",
			Usage: "AWS shared config profile",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("sitemap.s3.profile", altsrc.StringSourcer(src)),
			),
		},
		&cli.StringFlag{
			Name:  "cache-control",
			Usage: "Cache-Control header for the uploaded object",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("sitemap.s3.cache-control", altsrc.StringSourcer(src)),
			),
		},
		&cli.StringFlag{
			Name:  "s3-bucket",
			Usage: "also upload the sitemap to this bucket",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CINECTL_S3_BUCKET"),
				yaml.YAML("sitemap.s3.bucket", altsrc.StringSourcer(src)),
			),
		},
		&cli.StringFlag{
			Name:  "s3-endpoint",
			Usage: "S3 compatible endpoint URL",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("sitemap.s3.endpoint", altsrc.StringSourcer(src)),
			),
			Validator: func(value string) error {
				return FlagValidators(value, AbsoluteURLValidator)
			},
		},
		&cli.StringFlag{
			Name:  "s3-key",
			Usage: "object key",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("sitemap.s3.key", altsrc.StringSourcer(src)),
			),
			Value: "sitemap.xml",
		},
		&cli.StringFlag{
			Name:  "s3-region",
			Usage: "AWS region",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("sitemap.s3.region", altsrc.StringSourcer(src)),
			),
		},
	}
}
