// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"github.com/staranto/cinectl/internal/cache"
)

// DefaultCacheName is bumped whenever the asset list changes shape.
const DefaultCacheName = "cinectl-v1"

var (
	ErrBadStatus     = errors.New("unexpected response status")
	ErrInvalidAsset  = errors.New("invalid asset")
	ErrRelativeAsset = errors.New("relative asset needs an origin")
)

// Config is everything the worker needs to know up front.
type Config struct {
	// CacheName selects the store. Defaults to DefaultCacheName.
	CacheName string
	// Origin resolves relative asset paths, e.g. https://movies.example.com.
	Origin string
	// Assets are precached by Install, in order.
	Assets []string
	// Concurrency bounds parallel fetches during Install; 0 means no bound.
	Concurrency int
}

// Worker applies the cache-then-network policy on top of a Storage and a
// Fetcher. It implements http.RoundTripper.
type Worker struct {
	storage cache.Storage
	fetcher Fetcher
	cfg     Config
}

func New(storage cache.Storage, fetcher Fetcher, cfg Config) *Worker {
	if cfg.CacheName == "" {
		cfg.CacheName = DefaultCacheName
	}
	return &Worker{
		storage: storage,
		fetcher: fetcher,
		cfg:     cfg,
	}
}

// CacheName returns the store the worker reads and fills.
func (w *Worker) CacheName() string {
	return w.cfg.CacheName
}

// AssetResult is the outcome of precaching one asset. Err is nil on success.
type AssetResult struct {
	Asset    string
	URL      string
	Status   int
	Bytes    int
	Duration time.Duration
	Err      error
}

// InstallReport lists every asset outcome in Config.Assets order.
type InstallReport struct {
	Cache   string
	Results []AssetResult
}

// Cached returns the number of assets stored.
func (r *InstallReport) Cached() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the assets that could not be stored.
func (r *InstallReport) Failed() []AssetResult {
	var failed []AssetResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Install opens the store and precaches every asset. Assets are fetched
// concurrently and each settles on its own: a failed asset is recorded in
// the report and never fails the install or stops the others. The only
// error is failing to open the store.
func (w *Worker) Install(ctx context.Context) (*InstallReport, error) {
	store, err := w.storage.Open(ctx, w.cfg.CacheName)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", w.cfg.CacheName, err)
	}

	report := &InstallReport{
		Cache:   w.cfg.CacheName,
		Results: make([]AssetResult, len(w.cfg.Assets)),
	}

	var g errgroup.Group
	if w.cfg.Concurrency > 0 {
		g.SetLimit(w.cfg.Concurrency)
	}
	for i, asset := range w.cfg.Assets {
		g.Go(func() error {
			report.Results[i] = w.add(ctx, store, asset)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Failed() {
		log.WithError(res.Err).Warnf("failed to precache %s", res.Asset)
	}
	log.Infof("precached %d of %d assets into %s", report.Cached(), len(report.Results), report.Cache)

	return report, nil
}

// add fetches and stores a single asset.
func (w *Worker) add(ctx context.Context, store cache.Store, asset string) (res AssetResult) {
	start := time.Now()
	res = AssetResult{Asset: asset}
	defer func() { res.Duration = time.Since(start) }()

	u, err := w.resolve(asset)
	if err != nil {
		res.Err = err
		return res
	}
	res.URL = u.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrInvalidAsset, err)
		return res
	}

	resp, err := w.fetcher.Fetch(ctx, req)
	if err != nil {
		res.Err = err
		return res
	}
	res.Status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		res.Err = fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
		return res
	}

	entry, err := cache.NewEntry(resp)
	if err != nil {
		res.Err = err
		return res
	}
	res.Bytes = len(entry.Body)

	if err := store.Put(ctx, cache.Key(u), entry); err != nil {
		res.Err = fmt.Errorf("failed to store %s: %w", res.URL, err)
	}
	return res
}

// resolve turns an asset into an absolute URL.
func (w *Worker) resolve(asset string) (*url.URL, error) {
	ref, err := url.Parse(asset)
	if err != nil || asset == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAsset, asset)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	if w.cfg.Origin == "" {
		return nil, fmt.Errorf("%w: %q", ErrRelativeAsset, asset)
	}

	base, err := url.Parse(w.cfg.Origin)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("%w: origin %q", ErrInvalidAsset, w.cfg.Origin)
	}
	return Join(base, ref), nil
}

// Join places ref under origin's path the same way a reverse proxy rewrites
// an incoming request, so an asset and a proxied request share a cache key.
func Join(origin, ref *url.URL) *url.URL {
	p := ref.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := origin.JoinPath(p)
	switch {
	case origin.RawQuery == "":
		u.RawQuery = ref.RawQuery
	case ref.RawQuery != "":
		u.RawQuery = origin.RawQuery + "&" + ref.RawQuery
	}
	u.Fragment = ""
	return u
}

// Intercepts reports whether the worker handles req. Only GET is
// intercepted; everything else goes straight to the network.
func Intercepts(req *http.Request) bool {
	return req.Method == "" || req.Method == http.MethodGet
}

// Respond answers an intercepted request. A cache hit is returned as is with
// no revalidation. A miss goes to the network and the response is returned
// without being stored. A network failure becomes NetworkError. Respond
// never returns nil.
func (w *Worker) Respond(req *http.Request) *http.Response {
	ctx := req.Context()
	key := cache.Key(req.URL)

	if entry, ok := w.match(ctx, key); ok {
		log.Debugf("cache hit %s", key)
		return entry.Response(req)
	}
	log.Debugf("cache miss %s", key)

	resp, err := w.fetcher.Fetch(ctx, req)
	if err != nil || resp == nil {
		log.WithError(err).Debugf("network failure %s", key)
		return NetworkError(req)
	}
	return resp
}

// match looks key up, treating any store error as a miss.
func (w *Worker) match(ctx context.Context, key string) (*cache.Entry, bool) {
	store, err := w.storage.Open(ctx, w.cfg.CacheName)
	if err != nil {
		log.WithError(err).Warnf("failed to open cache %s", w.cfg.CacheName)
		return nil, false
	}

	entry, ok, err := store.Match(ctx, key)
	if err != nil {
		log.WithError(err).Warnf("failed to read cache entry %s", key)
		return nil, false
	}
	return entry, ok
}

// RoundTrip implements http.RoundTripper. Intercepted requests never return
// an error; others pass through to the fetcher untouched.
func (w *Worker) RoundTrip(req *http.Request) (*http.Response, error) {
	if !Intercepts(req) {
		return w.fetcher.Fetch(req.Context(), req)
	}
	return w.Respond(req), nil
}
