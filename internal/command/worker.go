// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/cinectl/internal/attrs"
	"github.com/staranto/cinectl/internal/cache"
	"github.com/staranto/cinectl/internal/config"
	"github.com/staranto/cinectl/internal/meta"
	"github.com/staranto/cinectl/internal/output"
	"github.com/staranto/cinectl/internal/worker"
)

var ErrNoOrigin = errors.New("serve needs an origin")

// storage is the cache backing the worker commands. Tests swap in memory.
var storage cache.Storage = cache.File{}

// newWorker builds a worker from the shared worker flags. Assets come from
// --asset, falling back to worker.assets in the config file.
func newWorker(cmd *cli.Command, fetcher worker.Fetcher) *worker.Worker {
	assets := cmd.StringSlice("asset")
	if len(assets) == 0 {
		assets, _ = config.GetStringSlice("worker.assets")
	}

	return worker.New(storage, fetcher, worker.Config{
		CacheName:   cmd.String("cache-name"),
		Origin:      cmd.String("origin"),
		Assets:      assets,
		Concurrency: int(cmd.Int("concurrency")),
	})
}

func defaultFetcher() worker.Fetcher {
	return worker.HTTPFetcher{Client: &http.Client{}}
}

// offlineFetcher fails every request, so only cached entries are served.
var offlineFetcher = worker.FetcherFunc(func(_ context.Context, req *http.Request) (*http.Response, error) {
	return nil, fmt.Errorf("offline: %s", req.URL)
})

// PrecacheCommandAction runs the install step and reports every asset.
// Failed assets are reported, not returned as errors.
func PrecacheCommandAction(ctx context.Context, cmd *cli.Command) error {
	w := newWorker(cmd, defaultFetcher())

	ctx, cancel := WithTimeout(ctx, cmd)
	defer cancel()

	report, err := w.Install(ctx)
	if err != nil {
		return err
	}

	return writeInstallReport(cmd, report)
}

func writeInstallReport(cmd *cli.Command, report *worker.InstallReport) error {
	rows := make([]map[string]interface{}, 0, len(report.Results))
	for _, res := range report.Results {
		status := "ok"
		if res.Err != nil {
			status = res.Err.Error()
		}
		rows = append(rows, map[string]interface{}{
			"asset":    res.Asset,
			"url":      res.URL,
			"status":   status,
			"code":     res.Status,
			"bytes":    res.Bytes,
			"size":     humanize.Bytes(uint64(res.Bytes)),
			"duration": res.Duration.Round(time.Millisecond).String(),
		})
	}

	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	al := reportAttrs([]string{"asset", "code", "size", "duration", "status"}, "url", "bytes")
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return err
		}
	}
	al.SetGlobalTransformSpec()

	opts := output.NewOptions(cmd)
	w := Stdout(cmd)
	if err := output.SliceDiceSpit(raw, al, opts, "", w); err != nil {
		return err
	}
	if opts.Format == "text" {
		fmt.Fprintf(w, "%d of %d assets cached in %s\n", report.Cached(), len(report.Results), report.Cache)
	}
	return nil
}

// reportAttrs shows the given columns in order. Hidden columns can be pulled
// in with --attrs.
func reportAttrs(shown []string, hidden ...string) attrs.AttrList {
	al := make(attrs.AttrList, 0, len(shown)+len(hidden))
	for _, k := range shown {
		al = append(al, attrs.Attr{Key: k, OutputKey: k, Include: true})
	}
	for _, k := range hidden {
		al = append(al, attrs.Attr{Key: k, OutputKey: k})
	}
	return al
}

// FetchCommandAction sends one GET through the worker and writes the body.
func FetchCommandAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return errors.New("fetch needs exactly one URL")
	}

	raw := cmd.Args().First()
	target, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q: %w", raw, worker.ErrInvalidAsset)
	}
	if !target.IsAbs() {
		origin := cmd.String("origin")
		if origin == "" {
			return fmt.Errorf("%q: %w", raw, worker.ErrRelativeAsset)
		}
		base, err := url.Parse(origin)
		if err != nil {
			return fmt.Errorf("invalid origin %q: %w", origin, err)
		}
		target = worker.Join(base, target)
	}

	fetcher := defaultFetcher()
	if cmd.Bool("offline") {
		fetcher = offlineFetcher
	}
	w := newWorker(cmd, fetcher)

	ctx, cancel := WithTimeout(ctx, cmd)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}

	resp := w.Respond(req)
	defer resp.Body.Close()

	out := Stdout(cmd)
	if cmd.Bool("include") {
		fmt.Fprintf(out, "%s %s\n", resp.Proto, resp.Status)
		if err := resp.Header.Write(out); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	log.Debugf("fetched %s: %d %s", target, resp.StatusCode, humanize.Bytes(uint64(n)))

	return nil
}

// ServeCommandAction runs a local reverse proxy to the origin whose
// transport is the worker.
func ServeCommandAction(ctx context.Context, cmd *cli.Command) error {
	origin := cmd.String("origin")
	if origin == "" {
		return ErrNoOrigin
	}
	upstream, err := url.Parse(origin)
	if err != nil || !upstream.IsAbs() {
		return fmt.Errorf("invalid origin %q", origin)
	}

	w := newWorker(cmd, defaultFetcher())

	if cmd.Bool("precache") {
		report, err := w.Install(ctx)
		if err != nil {
			return err
		}
		log.Infof("precached %d of %d assets", report.Cached(), len(report.Results))
	}

	ln, err := net.Listen("tcp", cmd.String("listen"))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return serve(ctx, ln, newProxy(upstream, w))
}

func newProxy(upstream *url.URL, rt http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(upstream)
			r.Out.Host = upstream.Host
		},
		Transport: rt,
		ErrorHandler: func(rw http.ResponseWriter, r *http.Request, err error) {
			log.WithError(err).Warnf("proxy %s %s", r.Method, r.URL)
			http.Error(rw, "Network Error", http.StatusRequestTimeout)
		},
	}
}

// serve blocks until ctx is done, then shuts the server down.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("serving on http://%s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func assetFlags(ns, src string) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "asset",
			Usage: "asset to precache, repeatable. Defaults to worker.assets in the config file",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "parallel asset fetches, 0 for no limit",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+".concurrency", altsrc.StringSourcer(src)),
				yaml.YAML("worker.concurrency", altsrc.StringSourcer(src)),
			),
			Value: 4,
		},
	}
}

// PrecacheCommandBuilder constructs the cli.Command for "precache".
func PrecacheCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	flags := append(assetFlags("precache", src), NewWorkerFlags("precache", src)...)
	flags = append(flags, NewTimeoutFlag("precache", src))
	flags = append(flags, NewGlobalFlags("precache", src)...)

	return &cli.Command{
		Name:      "precache",
		Usage:     "fill the offline cache with the asset list",
		UsageText: `cinectl precache [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: PrecacheCommandAction,
	}
}

// FetchCommandBuilder constructs the cli.Command for "fetch".
func FetchCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	flags := append([]cli.Flag{
		&cli.BoolFlag{
			Name:    "include",
			Aliases: []string{"i"},
			Usage:   "print the status line and headers",
		},
		&cli.BoolFlag{
			Name:  "offline",
			Usage: "never touch the network",
		},
		NewTimeoutFlag("fetch", src),
	}, NewWorkerFlags("fetch", src)...)

	return &cli.Command{
		Name:      "fetch",
		Usage:     "GET a URL through the offline cache",
		UsageText: `cinectl fetch [options] <url>`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: FetchCommandAction,
	}
}

// ServeCommandBuilder constructs the cli.Command for "serve".
func ServeCommandBuilder(meta meta.Meta) *cli.Command {
	src := meta.Config.Source

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:    "listen",
			Aliases: []string{"l"},
			Usage:   "address to listen on",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("serve.listen", altsrc.StringSourcer(src)),
			),
			Value: "127.0.0.1:8080",
			Validator: func(value string) error {
				if _, port, err := net.SplitHostPort(value); err != nil {
					return err
				} else if _, err := strconv.Atoi(port); err != nil {
					return fmt.Errorf("invalid port %q", port)
				}
				return nil
			},
		},
		&cli.BoolFlag{
			Name:  "precache",
			Usage: "run the install step before serving",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("serve.precache", altsrc.StringSourcer(src)),
			),
		},
	}, assetFlags("serve", src)...)
	flags = append(flags, NewWorkerFlags("serve", src)...)

	return &cli.Command{
		Name:      "serve",
		Usage:     "serve the origin through the offline cache",
		UsageText: `cinectl serve [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: ServeCommandAction,
	}
}
