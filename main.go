// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apex/log"

	"github.com/staranto/cinectl/internal/cacheutil"
	"github.com/staranto/cinectl/internal/command"
	"github.com/staranto/cinectl/internal/config"
	mylog "github.com/staranto/cinectl/internal/log"
	"github.com/staranto/cinectl/internal/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		log.Error(err.Error())
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		log.Error(err.Error())
		return 1
	}

	return 0
}

// mangleArguments expands an @set into the args stored under <cmd>.<set> in
// the config file. Without an explicit @set, <cmd>.defaults is used if it
// exists. The expanded args go right after the subcommand so anything on the
// command line still wins.
func mangleArguments(args []string) []string {
	// We know the first two args are going to be the executable and command.
	preamble := make([]string, 2)
	copy(preamble, args[:2])

	// Short-circuit for --help/-h. If help is requested, just keep the preamble
	// and add --help flag.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return append(preamble, "--help")
		}
	}

	if strings.HasPrefix(args[1], "-") {
		return args
	}

	rest := make([]string, 0, len(args)-2)
	set := "defaults"
	for _, a := range args[2:] {
		if len(a) > 1 && strings.HasPrefix(a, "@") && set == "defaults" {
			set = a[1:]
			continue
		}
		rest = append(rest, a)
	}

	// A cache subcommand sits between the command and its flags.
	if args[1] == "cache" && len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		preamble = append(preamble, rest[0])
		rest = rest[1:]
	}

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	var expanded []string
	for _, arg := range setArgs {
		expanded = append(expanded, strings.Fields(arg)...)
	}

	out := append(preamble, expanded...)
	out = append(out, rest...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
