// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cinectl/internal/cache"
	"github.com/staranto/cinectl/internal/sitemap"
	"github.com/staranto/cinectl/internal/tmdb"
	"github.com/staranto/cinectl/internal/worker"
)

const trendingBody = `{
  "page": 1,
  "results": [
    {"id": 603, "title": "The Matrix", "release_date": "1999-03-30", "vote_average": 8.2, "popularity": 80.5},
    {"id": 634649, "title": "Spider-Man: No Way Home!", "release_date": "2021-12-15", "vote_average": 7.9, "popularity": 120.1},
    {"id": 348, "title": "Alien", "release_date": "1979-05-25", "vote_average": 8.5, "popularity": 40.2}
  ],
  "total_pages": 1,
  "total_results": 3
}`

// setup isolates config, cache and env for one test. cfg is the YAML config
// file content.
func setup(t *testing.T, cfg string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "cinectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	t.Setenv("CINECTL_CFG", path)
	t.Setenv("CINECTL_CACHE_DIR", filepath.Join(dir, "cache"))
	for _, k := range []string{
		"CINECTL_APIKEY", "TMDB_API_KEY", "CINECTL_APIURL", "CINECTL_DOMAIN",
		"CINECTL_ORIGIN", "CINECTL_CACHE_NAME", "CINECTL_S3_BUCKET", "CINECTL_CACHE",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	return dir
}

// run executes cinectl with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	argv := append([]string{"cinectl"}, args...)
	app, err := InitApp(context.Background(), argv)
	require.NoError(t, err)

	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard

	err = app.Run(context.Background(), argv)
	return out.String(), err
}

// tmdbServer answers every request with status and body and records the
// requests it saw.
func tmdbServer(t *testing.T, status int, body string) (*httptest.Server, *[]*http.Request) {
	t.Helper()

	var seen []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, &seen
}

func TestSitemapCommand(t *testing.T) {
	dir := setup(t, "output: text\n")
	srv, seen := tmdbServer(t, http.StatusOK, trendingBody)
	path := filepath.Join(dir, "public", "sitemap.xml")

	out, err := run(t, "sitemap",
		"--apikey", "secret",
		"--apiurl", srv.URL,
		"--domain", "https://movies.example.com/",
		"--file", path,
		"--window", "week",
	)
	require.NoError(t, err)
	assert.Equal(t, path+" (4 urls)\n", out)

	require.Len(t, *seen, 1)
	assert.Equal(t, "/trending/movie/week", (*seen)[0].URL.Path)
	assert.Equal(t, "secret", (*seen)[0].URL.Query().Get("api_key"))

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	today := time.Now().UTC().Format("2006-01-02")
	assert.True(t, strings.HasPrefix(string(doc), `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, string(doc), "<loc>https://movies.example.com/</loc>")
	assert.Contains(t, string(doc), "<loc>https://movies.example.com/movie/the-matrix</loc>")
	assert.Contains(t, string(doc), "<loc>https://movies.example.com/movie/spider-man-no-way-home</loc>")
	assert.Contains(t, string(doc), "<lastmod>"+today+"</lastmod>")
}

func TestSitemapCommand_FromConfig(t *testing.T) {
	srv, _ := tmdbServer(t, http.StatusOK, `{"results":[{"title":"Alien"}]}`)
	dir := t.TempDir()
	path := filepath.Join(dir, "sitemap.xml")

	setup(t, "apiurl: "+srv.URL+"\n"+
		"sitemap:\n"+
		"  apikey: secret\n"+
		"  domain: films.example.org\n"+
		"  file: "+path+"\n"+
		"  movie-path: /film\n")

	_, err := run(t, "sitemap", "--quiet")
	require.NoError(t, err)

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<loc>https://films.example.org/film/alien</loc>")
}

func TestSitemapCommand_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		args   []string
		err    error
		errMsg string
	}{
		{
			name:   "malformed",
			status: http.StatusOK,
			body:   `<html>not json</html>`,
			err:    tmdb.ErrMalformedResponse,
		},
		{
			name:   "strict without results",
			status: http.StatusOK,
			body:   `{"page":1}`,
			args:   []string{"--strict"},
			err:    tmdb.ErrMissingResults,
		},
		{
			name:   "api error",
			status: http.StatusUnauthorized,
			body:   `{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`,
			errMsg: "Invalid API key",
		},
		{
			name:   "no domain",
			status: http.StatusOK,
			body:   trendingBody,
			args:   []string{"--domain", ""},
			err:    sitemap.ErrNoDomain,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setup(t, "output: text\n")
			srv, _ := tmdbServer(t, tt.status, tt.body)

			path := filepath.Join(dir, "sitemap.xml")
			require.NoError(t, os.WriteFile(path, []byte("previous"), 0o600))

			args := []string{"sitemap", "--apikey", "k", "--apiurl", srv.URL,
				"--domain", "https://movies.example.com", "--file", path}
			_, err := run(t, append(args, tt.args...)...)
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}

			// The previous sitemap is left alone.
			doc, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "previous", string(doc))
		})
	}
}

func TestSitemapCommand_MissingResults(t *testing.T) {
	dir := setup(t, "output: text\n")
	srv, _ := tmdbServer(t, http.StatusOK, `{"page":1}`)
	path := filepath.Join(dir, "sitemap.xml")

	out, err := run(t, "sitemap", "--apikey", "k", "--apiurl", srv.URL,
		"--domain", "movies.example.com", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(1 urls)")

	doc, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(doc), "<url>"))
}

func TestSitemapCommand_NoAPIKey(t *testing.T) {
	setup(t, "output: text\n")

	_, err := run(t, "sitemap", "--domain", "https://movies.example.com")
	assert.ErrorIs(t, err, tmdb.ErrNoAPIKey)
}

func TestTrendingCommand(t *testing.T) {
	setup(t, "output: text\n")
	srv, seen := tmdbServer(t, http.StatusOK, trendingBody)

	out, err := run(t, "trending", "--apikey", "k", "--apiurl", srv.URL,
		"-o", "json", "--sort", "-vote")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)

	titles := []string{}
	for _, r := range rows {
		titles = append(titles, r["title"].(string))
	}
	assert.Equal(t, []string{"Alien", "The Matrix", "Spider-Man: No Way Home!"}, titles)
	assert.ElementsMatch(t, []string{"id", "title", "released", "vote"}, keys(rows[0]))
	assert.Equal(t, "/trending/movie/day", (*seen)[0].URL.Path)
}

func TestTrendingCommand_ConfigDefaults(t *testing.T) {
	srv, seen := tmdbServer(t, http.StatusOK, trendingBody)
	setup(t, "apikey: k\n"+
		"apiurl: "+srv.URL+"\n"+
		"trending:\n"+
		"  output: yaml\n"+
		"  window: week\n")

	out, err := run(t, "trending", "--filter", "title@matrix")
	require.NoError(t, err)
	assert.Contains(t, out, "title: The Matrix")
	assert.NotContains(t, out, "Alien")
	assert.Equal(t, "/trending/movie/week", (*seen)[0].URL.Path)
}

func TestTrendingCommand_Text(t *testing.T) {
	setup(t, "output: text\n")
	srv, _ := tmdbServer(t, http.StatusOK, trendingBody)

	out, err := run(t, "trending", "--apikey", "k", "--apiurl", srv.URL,
		"--titles", "--attrs", "!vote,!released,popularity", "--filter", "popularity>50")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "popularity")
	assert.NotContains(t, lines[0], "vote")
	assert.Contains(t, out, "The Matrix")
	assert.NotContains(t, out, "Alien")
}

func TestTrendingCommand_BadWindow(t *testing.T) {
	setup(t, "output: text\n")

	_, err := run(t, "trending", "--apikey", "k", "--window", "month")
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	setup(t, "output: text\n")
	srv, seen := tmdbServer(t, http.StatusOK, `{"page":2,"results":[{"id":603,"title":"The Matrix"}]}`)

	out, err := run(t, "search", "--apikey", "k", "--apiurl", srv.URL,
		"--page", "2", "-o", "json", "the", "matrix")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "The Matrix"`)

	require.Len(t, *seen, 1)
	q := (*seen)[0].URL.Query()
	assert.Equal(t, "/search/movie", (*seen)[0].URL.Path)
	assert.Equal(t, "the matrix", q.Get("query"))
	assert.Equal(t, "2", q.Get("page"))
}

func TestSearchCommand_Errors(t *testing.T) {
	setup(t, "output: text\n")
	srv, _ := tmdbServer(t, http.StatusOK, `{"results":[]}`)

	_, err := run(t, "search", "--apikey", "k", "--apiurl", srv.URL)
	assert.ErrorIs(t, err, ErrNoQuery)

	_, err = run(t, "search", "--apikey", "k", "--apiurl", srv.URL, "--page", "0", "alien")
	assert.Error(t, err)

	out, err := run(t, "search", "--apikey", "k", "--apiurl", srv.URL, "-o", "json", "nothing")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestBrowseCommand_NotATerminal(t *testing.T) {
	setup(t, "output: text\n")
	srv, _ := tmdbServer(t, http.StatusOK, trendingBody)

	saved := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = saved })

	out, err := run(t, "browse", "--apikey", "k", "--apiurl", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "The Matrix")
	assert.Contains(t, out, "Alien")
}

// origin serves a tiny static site.
func origin(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = io.WriteString(w, "<html>home</html>")
		case "/app.js":
			w.Header().Set("Content-Type", "text/javascript")
			_, _ = io.WriteString(w, "console.log('hi')")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func memoryStorage(t *testing.T) *cache.Memory {
	t.Helper()

	saved := storage
	mem := cache.NewMemory()
	storage = mem
	t.Cleanup(func() { storage = saved })
	return mem
}

func TestPrecacheAndFetch(t *testing.T) {
	setup(t, "output: text\n")
	memoryStorage(t)
	site := origin(t)

	out, err := run(t, "precache", "--origin", site.URL,
		"--asset", "/", "--asset", "/app.js", "--asset", "/missing", "-o", "json")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "/", rows[0]["asset"])
	assert.Equal(t, "ok", rows[0]["status"])
	assert.Equal(t, "ok", rows[1]["status"])
	assert.Equal(t, float64(404), rows[2]["code"])
	assert.Contains(t, rows[2]["status"], worker.ErrBadStatus.Error())

	// Cached assets are served with the network gone.
	site.Close()

	out, err = run(t, "fetch", "--offline", site.URL+"/app.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log('hi')", out)

	out, err = run(t, "fetch", "--origin", site.URL, "--include", "/missing")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 408 Network Error"))
	assert.True(t, strings.HasSuffix(out, "Network Error"))
}

func TestPrecache_TextReport(t *testing.T) {
	setup(t, "worker:\n  assets:\n    - /\n    - /app.js\n")
	mem := memoryStorage(t)
	site := origin(t)

	out, err := run(t, "precache", "--origin", site.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 2 assets cached in "+worker.DefaultCacheName)
	assert.Equal(t, []string{worker.DefaultCacheName}, mem.Names())
}

func TestFetch_Errors(t *testing.T) {
	setup(t, "output: text\n")
	memoryStorage(t)

	_, err := run(t, "fetch")
	assert.Error(t, err)

	_, err = run(t, "fetch", "/relative")
	assert.ErrorIs(t, err, worker.ErrRelativeAsset)
}

func TestServeProxy(t *testing.T) {
	setup(t, "output: text\n")
	memoryStorage(t)
	site := origin(t)

	upstream, err := url.Parse(site.URL)
	require.NoError(t, err)

	w := worker.New(storage, worker.HTTPFetcher{}, worker.Config{
		Origin: site.URL,
		Assets: []string{"/app.js"},
	})
	report, err := w.Install(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Cached())

	proxy := httptest.NewServer(newProxy(upstream, w))
	t.Cleanup(proxy.Close)

	get := func(path string) (int, string) {
		resp, err := http.Get(proxy.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	code, body := get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<html>home</html>", body)

	site.Close()

	code, body = get("/app.js")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "console.log('hi')", body)

	code, body = get("/")
	assert.Equal(t, http.StatusRequestTimeout, code)
	assert.Equal(t, "Network Error", body)
}

func TestServeProxy_OriginWithPath(t *testing.T) {
	setup(t, "output: text\n")
	memoryStorage(t)

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/site/app.js" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "console.log('site')")
	}))
	t.Cleanup(site.Close)

	upstream, err := url.Parse(site.URL + "/site")
	require.NoError(t, err)

	w := worker.New(storage, worker.HTTPFetcher{}, worker.Config{
		Origin: upstream.String(),
		Assets: []string{"/app.js"},
	})
	report, err := w.Install(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Cached())

	site.Close()

	proxy := httptest.NewServer(newProxy(upstream, w))
	t.Cleanup(proxy.Close)

	resp, err := http.Get(proxy.URL + "/app.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "console.log('site')", string(b))
}

func TestServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, http.NotFoundHandler())
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_NoOrigin(t *testing.T) {
	setup(t, "output: text\n")

	_, err := run(t, "serve")
	assert.ErrorIs(t, err, ErrNoOrigin)
}

func TestCacheCommands(t *testing.T) {
	dir := setup(t, "output: text\n")
	base := filepath.Join(dir, "cache")

	for name, files := range map[string][]string{
		"cinectl-v1": {"a", "b"},
		"cinectl-v2": {"c"},
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, name), 0o755))
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(base, name, f), []byte("12345"), 0o600))
		}
	}
	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(base, "cinectl-v1", "a"), old, old))

	out, err := run(t, "cache", "ls", "-o", "json", "--attrs", "bytes")
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "cinectl-v1", rows[0]["name"])
	assert.Equal(t, float64(2), rows[0]["files"])
	assert.Equal(t, float64(10), rows[0]["bytes"])
	assert.Equal(t, "cinectl-v2", rows[1]["name"])

	out, err = run(t, "cache", "purge", "--hours", "48")
	require.NoError(t, err)
	assert.Equal(t, "removed 1 file from "+base+"\n", out)

	_, err = os.Stat(filepath.Join(base, "cinectl-v1", "a"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "cinectl-v1", "b"))
	assert.NoError(t, err)
}

func TestCompletionCommand(t *testing.T) {
	setup(t, "output: text\n")

	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "complete -F _cinectl cinectl")

	out, err = run(t, "completion", "zsh")
	require.NoError(t, err)
	assert.Contains(t, out, "#compdef cinectl")
}

func TestTLDR(t *testing.T) {
	setup(t, "output: text\n")

	for _, args := range [][]string{
		{"search", "--tldr"},
		{"sitemap", "--tldr"},
		{"cache", "purge", "--tldr"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			out, err := run(t, args...)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, "# cinectl-"+args[0]+"\n"), out)
			assert.Contains(t, out, "`cinectl "+args[0])
		})
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		validator FlagValidatorType
		wantErr   bool
	}{
		{"output text", "text", OutputValidator, false},
		{"output yaml", "yaml", OutputValidator, false},
		{"output csv", "csv", OutputValidator, true},
		{"window day", "day", WindowValidator, false},
		{"window week", "week", WindowValidator, false},
		{"window month", "month", WindowValidator, true},
		{"url empty", "", AbsoluteURLValidator, false},
		{"url https", "https://s3.example.com", AbsoluteURLValidator, false},
		{"url bare host", "s3.example.com", AbsoluteURLValidator, true},
		{"url ftp", "ftp://s3.example.com", AbsoluteURLValidator, true},
		{"jammed", "--file", JammedFlagValidator, true},
		{"not jammed", "public/sitemap.xml", JammedFlagValidator, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FlagValidators(tt.value, tt.validator)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetMeta(t *testing.T) {
	setup(t, "output: text\n")

	app, err := InitApp(context.Background(), []string{"cinectl", "trending"})
	require.NoError(t, err)

	for _, cmd := range app.Commands {
		m := GetMeta(cmd)
		assert.Equal(t, []string{"cinectl", "trending"}, m.Args, cmd.Name)
		assert.NotEmpty(t, m.Config.Source, cmd.Name)
	}
	assert.Empty(t, GetMeta(nil).Args)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
