// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Entry is a whole HTTP response held in a store.
type Entry struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// NewEntry drains and closes resp.Body.
func NewEntry(resp *http.Response) (*Entry, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Entry{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// Response builds a fresh *http.Response for req. Every call gets its own
// body reader, so one entry can serve any number of requests.
func (e *Entry) Response(req *http.Request) *http.Response {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	return &http.Response{
		Status:        status,
		StatusCode:    e.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// MarshalBinary encodes the entry in HTTP/1.1 wire format.
func (e *Entry) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Response(nil).Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes an entry written by MarshalBinary.
func (e *Entry) UnmarshalBinary(data []byte) error {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(data)), nil)
	if err != nil {
		return fmt.Errorf("failed to decode cache entry: %w", err)
	}
	decoded, err := NewEntry(resp)
	if err != nil {
		return err
	}
	*e = *decoded
	return nil
}

// Key is the request identity used to address entries: the absolute URL
// without its fragment.
func Key(u *url.URL) string {
	if u == nil {
		return ""
	}
	k := *u
	k.Fragment = ""
	k.RawFragment = ""
	return k.String()
}
