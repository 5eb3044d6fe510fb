// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/cinectl/internal/attrs"
	"github.com/staranto/cinectl/internal/filters"
)

const trendingPage = `{
	"page": 1,
	"results": [
		{"id": 603, "title": "The Matrix", "release_date": "1999-03-30", "vote_average": 8.2, "popularity": 80.1},
		{"id": 348, "title": "alien", "release_date": "1979-05-25", "vote_average": 8.16, "popularity": 95.3},
		{"id": 78, "title": "Blade Runner", "release_date": "1982-06-25", "vote_average": 7.9, "popularity": 60}
	]
}`

func TestSortDataset(t *testing.T) {
	testData := []map[string]interface{}{
		{"title": "Zodiac", "vote": 7.5, "released": "2007-03-02"},
		{"title": "alien", "vote": 8.1, "released": "1979-05-25"},
		{"title": "Blade Runner", "vote": 7.5, "released": "1982-06-25"},
	}

	tests := []struct {
		name      string
		spec      string
		wantOrder []string
	}{
		{
			name:      "ascending by title ignores case",
			spec:      "title",
			wantOrder: []string{"alien", "Blade Runner", "Zodiac"},
		},
		{
			name:      "descending by title",
			spec:      "-title",
			wantOrder: []string{"Zodiac", "Blade Runner", "alien"},
		},
		{
			name:      "case sensitive",
			spec:      "!title",
			wantOrder: []string{"Blade Runner", "Zodiac", "alien"},
		},
		{
			name:      "descending case sensitive",
			spec:      "-!title",
			wantOrder: []string{"alien", "Zodiac", "Blade Runner"},
		},
		{
			name:      "numeric",
			spec:      "-vote",
			wantOrder: []string{"alien", "Zodiac", "Blade Runner"},
		},
		{
			name:      "multiple fields",
			spec:      "vote,released",
			wantOrder: []string{"Blade Runner", "Zodiac", "alien"},
		},
		{
			name:      "empty spec keeps order",
			spec:      "",
			wantOrder: []string{"Zodiac", "alien", "Blade Runner"},
		},
		{
			name:      "missing key keeps order",
			spec:      "budget",
			wantOrder: []string{"Zodiac", "alien", "Blade Runner"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]interface{}, len(testData))
			copy(data, testData)
			SortDataset(data, tt.spec)
			for i, expected := range tt.wantOrder {
				assert.Equal(t, expected, data[i]["title"], "at index %d", i)
			}
		})
	}
}

func TestSortDataset_NilFirst(t *testing.T) {
	data := []map[string]interface{}{
		{"title": "b", "released": "2001-01-01"},
		{"title": "a"},
	}
	SortDataset(data, "released")
	assert.Equal(t, "a", data[0]["title"])
}

func TestInterfaceToString(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		emptyVal string
		want     string
	}{
		{name: "string", value: "hello", want: "hello"},
		{name: "int", value: 42, want: "42"},
		{name: "int64", value: int64(603), want: "603"},
		{name: "whole float", value: 603.0, want: "603"},
		{name: "rating", value: 8.16, want: "8.2"},
		{name: "rating one decimal", value: 7.9, want: "7.9"},
		{name: "bool true", value: true, want: "true"},
		{name: "bool false is zero value", value: false, want: ""},
		{name: "nil default", value: nil, want: ""},
		{name: "nil custom", value: nil, emptyVal: "-", want: "-"},
		{name: "slice", value: []interface{}{28.0, 878.0}, want: "[28,878]"},
		{name: "map", value: map[string]int{"x": 1}, want: `{"x":1}`},
		{name: "zero with custom empty", value: 0.0, emptyVal: "N/A", want: "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.emptyVal != "" {
				got = InterfaceToString(tt.value, tt.emptyVal)
			} else {
				got = InterfaceToString(tt.value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSliceDiceSpit_JSON(t *testing.T) {
	var buf bytes.Buffer
	al := attrs.AttrList{
		{Key: "id", OutputKey: "id", Include: true},
		{Key: "title", OutputKey: "title", Include: true, TransformSpec: "u"},
		{Key: "popularity", OutputKey: "popularity"},
	}

	err := SliceDiceSpit([]byte(trendingPage), al, Options{Format: "json", Sort: "-popularity"}, "results", &buf)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id": 348, "title": "ALIEN"},
		{"id": 603, "title": "THE MATRIX"},
		{"id": 78, "title": "BLADE RUNNER"}
	]`, buf.String())
}

func TestSliceDiceSpit_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := SliceDiceSpit([]byte(`{"results":[]}`), attrs.Defaults(), Options{Format: "json"}, "results", &buf)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", buf.String())
}

func TestSliceDiceSpit_YAML(t *testing.T) {
	var buf bytes.Buffer
	al := attrs.AttrList{
		{Key: "title", OutputKey: "title", Include: true},
		{Key: "release_date", OutputKey: "released", Include: true, TransformSpec: "4"},
	}

	err := SliceDiceSpit([]byte(trendingPage), al, Options{Format: "yaml", Filter: "released<1990", Sort: "released"}, "results", &buf)
	require.NoError(t, err)
	assert.Equal(t, "- released: \"1979\"\n  title: alien\n- released: \"1982\"\n  title: Blade Runner\n", buf.String())
}

func TestSliceDiceSpit_Raw(t *testing.T) {
	var buf bytes.Buffer
	err := SliceDiceSpit([]byte(trendingPage), attrs.Defaults(), Options{Format: "raw", Filter: "not even parsed"}, "results", &buf)
	require.NoError(t, err)
	assert.Equal(t, trendingPage, buf.String())
}

func TestSliceDiceSpit_Text(t *testing.T) {
	var buf bytes.Buffer
	err := SliceDiceSpit([]byte(trendingPage), attrs.Defaults(), Options{Format: "text", Titles: true, Sort: "title"}, "results", &buf)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "title")
	assert.Contains(t, lines[0], "released")
	assert.NotContains(t, lines[0], "popularity")
	assert.Contains(t, lines[1], "alien")
	assert.Contains(t, lines[1], "8.2")
	assert.Contains(t, lines[2], "Blade Runner")
	assert.Contains(t, lines[3], "The Matrix")
	assert.Contains(t, lines[3], "1999-03-30")
}

func TestSliceDiceSpit_TextNoRows(t *testing.T) {
	var buf bytes.Buffer
	err := SliceDiceSpit([]byte(trendingPage), attrs.Defaults(), Options{Format: "text", Filter: "title=Jaws"}, "results", &buf)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestSliceDiceSpit_BadFilter(t *testing.T) {
	var buf bytes.Buffer
	err := SliceDiceSpit([]byte(trendingPage), attrs.Defaults(), Options{Format: "json", Filter: "budget>1"}, "results", &buf)
	assert.ErrorIs(t, err, filters.ErrUnknownKey)
	assert.Empty(t, buf.String())
}

func TestGetColors(t *testing.T) {
	header, even, odd := getColors("colors")
	assert.NotEmpty(t, header)
	assert.NotEmpty(t, even)
	assert.NotEmpty(t, odd)
}

func BenchmarkSortDataset(b *testing.B) {
	testData := []map[string]interface{}{
		{"title": "zebra", "vote": 3.0},
		{"title": "alpha", "vote": 1.0},
		{"title": "beta", "vote": 2.0},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data := make([]map[string]interface{}, len(testData))
		copy(data, testData)
		SortDataset(data, "title")
	}
}
