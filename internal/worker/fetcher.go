// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/staranto/cinectl/internal/version"
)

// Fetcher performs a network request.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) (*http.Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

// HTTPFetcher fetches with an *http.Client. A nil Client means
// http.DefaultClient.
type HTTPFetcher struct {
	Client *http.Client
}

func (f HTTPFetcher) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	// Server side requests (from a proxy) carry a RequestURI, which
	// http.Client refuses.
	out := req.Clone(ctx)
	out.RequestURI = ""
	if out.Header == nil {
		out.Header = http.Header{}
	}
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", version.UserAgent())
	}

	return client.Do(out)
}

const (
	NetworkErrorStatus = http.StatusRequestTimeout
	NetworkErrorReason = "Network Error"
)

// NetworkError is the synthetic response returned when the network fails.
func NetworkError(req *http.Request) *http.Response {
	return &http.Response{
		Status:     "408 " + NetworkErrorReason,
		StatusCode: NetworkErrorStatus,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header: http.Header{
			"Content-Type": {"text/plain; charset=utf-8"},
		},
		Body:          io.NopCloser(strings.NewReader(NetworkErrorReason)),
		ContentLength: int64(len(NetworkErrorReason)),
		Request:       req,
	}
}
