// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cinectl/internal/worker"
)

// NewGlobalFlags returns the presentation flags shared by the listing
// commands. ns is the command name used as the config namespace and src is
// the config file path.
func NewGlobalFlags(ns string, src string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".attrs", altsrc.StringSourcer(src)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".color", altsrc.StringSourcer(src)),
				yaml.YAML("color", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".output", altsrc.StringSourcer(src)),
				yaml.YAML("output", altsrc.StringSourcer(src)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".sort", altsrc.StringSourcer(src)),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".titles", altsrc.StringSourcer(src)),
				yaml.YAML("titles", altsrc.StringSourcer(src)),
			),
			Value: false,
		},
	}

	return
}

// NewAPIFlags returns the flags needed to talk to TMDB.
func NewAPIFlags(ns string, src string) []cli.Flag {
	return []cli.Flag{
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:  "apikey",
			Usage: "TMDB API key",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CINECTL_APIKEY"),
				cli.EnvVar("TMDB_API_KEY"),
			),
		}),
		NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
			Name:   "apiurl",
			Usage:  "TMDB API base URL",
			Hidden: true,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CINECTL_APIURL"),
			),
		}),
		NewTimeoutFlag(ns, src),
	}
}

// NewTimeoutFlag bounds network work. 0 leaves it to the transport.
func NewTimeoutFlag(ns string, src string) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "bound network requests, e.g. 10s. 0 waits as long as the transport does",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+".timeout", altsrc.StringSourcer(src)),
			yaml.YAML("timeout", altsrc.StringSourcer(src)),
		),
	}
}

// NewWindowFlag returns the trending time window flag.
func NewWindowFlag(ns string, src string) *cli.StringFlag {
	return NameSpacedValueChainFlagFromConfigFile(ns, src, &cli.StringFlag{
		Name:    "window",
		Aliases: []string{"w"},
		Usage:   "trending time window, day or week",
		Value:   "day",
		Validator: func(value string) error {
			return FlagValidators(value, WindowValidator)
		},
	})
}

// NewWorkerFlags returns the cache flags shared by the worker commands.
func NewWorkerFlags(ns string, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "cache-name",
			Usage: "named cache store to read and fill",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CINECTL_CACHE_NAME"),
				yaml.YAML("worker.cache", altsrc.StringSourcer(src)),
			),
			Value: worker.DefaultCacheName,
		},
		&cli.StringFlag{
			Name:  "origin",
			Usage: "site origin that relative assets resolve against",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CINECTL_ORIGIN"),
				yaml.YAML(ns+".origin", altsrc.StringSourcer(src)),
				yaml.YAML("worker.origin", altsrc.StringSourcer(src)),
				yaml.YAML("domain", altsrc.StringSourcer(src)),
			),
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}
