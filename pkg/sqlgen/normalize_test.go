// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlgen

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kraklabs/kleos/internal/errors"
)

func TestSplitColumns(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "single", in: "title", want: []string{"title"}},
		{name: "pair", in: "title,text", want: []string{"title", "text"}},
		{name: "whitespace trimmed", in: " title , text ", want: []string{"title", "text"}},
		{name: "empty middle entry", in: "title,,text", wantErr: true},
		{name: "trailing comma", in: "title,", wantErr: true},
		{name: "only comma", in: ",", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SplitColumns("--content-columns", tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SplitColumns(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitColumns(%q) error = %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitColumns(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMetadataMap_PreservesOrder(t *testing.T) {
	got, err := ParseMetadataMap("--metadata-map", `{"author":"by","points":"score","posted":"time"}`)
	if err != nil {
		t.Fatalf("ParseMetadataMap() error = %v", err)
	}
	want := []MetadataColumn{
		{Key: "author", Source: "by"},
		{Key: "points", Source: "score"},
		{Key: "posted", Source: "time"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseMetadataMap() = %v, want %v", got, want)
	}
}

func TestParseMetadataMap_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "malformed json", in: `{"author":`},
		{name: "not an object", in: `["by"]`},
		{name: "non-string value", in: `{"points": 100}`},
		{name: "duplicate key", in: `{"author":"by","author":"id"}`},
		{name: "trailing garbage", in: `{"author":"by"} extra`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadataMap("--metadata-map", tt.in)
			if err == nil {
				t.Fatalf("ParseMetadataMap(%q) = nil, want error", tt.in)
			}
			if got := errors.KindOf(err); got != errors.KindInvalidJSON {
				t.Fatalf("kind = %s, want %s", got, errors.KindInvalidJSON)
			}
			// The message must name the offending flag.
			if !strings.Contains(err.Error(), "--metadata-map") {
				t.Fatalf("error %q does not name the flag", err.Error())
			}
		})
	}
}

func TestParseParams(t *testing.T) {
	got, err := ParseParams("--param", []string{"temperature=0.5", "mode=fast", "temperature=0.9"})
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	want := []Param{
		{Key: "temperature", Value: "0.5"},
		{Key: "mode", Value: "fast"},
		{Key: "temperature", Value: "0.9"}, // duplicates preserved in order
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseParams() = %v, want %v", got, want)
	}

	if _, err := ParseParams("--param", []string{"no_equals"}); err == nil {
		t.Fatal("ParseParams() accepted a value without '='")
	}
	if _, err := ParseParams("--param", []string{"=value"}); err == nil {
		t.Fatal("ParseParams() accepted an empty key")
	}
}

func TestParseParams_EmptyValueAllowed(t *testing.T) {
	got, err := ParseParams("--param", []string{"flag="})
	if err != nil {
		t.Fatalf("ParseParams() error = %v", err)
	}
	if len(got) != 1 || got[0].Value != "" {
		t.Fatalf("ParseParams() = %v, want one param with empty value", got)
	}
}

func TestDefaultIngestColumns(t *testing.T) {
	tests := []struct {
		table        string
		wantContent  []string
		wantMetadata []MetadataColumn
	}{
		{
			table:       "stories",
			wantContent: []string{"title", "text"},
			wantMetadata: []MetadataColumn{
				{Key: "id", Source: "id"}, {Key: "by", Source: "by"},
				{Key: "score", Source: "score"}, {Key: "time", Source: "time"},
				{Key: "descendants", Source: "descendants"}, {Key: "url", Source: "url"},
			},
		},
		{
			table:       "comments",
			wantContent: []string{"text"},
			wantMetadata: []MetadataColumn{
				{Key: "id", Source: "id"}, {Key: "by", Source: "by"},
				{Key: "parent", Source: "parent"}, {Key: "time", Source: "time"},
			},
		},
		{
			table:        "jobs",
			wantContent:  []string{"text"},
			wantMetadata: []MetadataColumn{{Key: "id", Source: "id"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			content, metadata := DefaultIngestColumns(tt.table)
			if !reflect.DeepEqual(content, tt.wantContent) {
				t.Errorf("content = %v, want %v", content, tt.wantContent)
			}
			if !reflect.DeepEqual(metadata, tt.wantMetadata) {
				t.Errorf("metadata = %v, want %v", metadata, tt.wantMetadata)
			}
		})
	}
}

func TestDefaultJobColumns(t *testing.T) {
	insert, sel := DefaultJobColumns("stories")
	if insert != "(content, story_id, author)" || sel != "title, id, by" {
		t.Fatalf("DefaultJobColumns(stories) = %q, %q", insert, sel)
	}
	insert, sel = DefaultJobColumns("comments")
	if insert != "(content, comment_id, author)" || sel != "text, id, by" {
		t.Fatalf("DefaultJobColumns(comments) = %q, %q", insert, sel)
	}
	insert, sel = DefaultJobColumns("polls")
	if insert != "(content, original_id)" || sel != "text, id" {
		t.Fatalf("DefaultJobColumns(polls) = %q, %q", insert, sel)
	}
}

func TestTrimBaseURL(t *testing.T) {
	if got := TrimBaseURL("http://localhost:11434/"); got != "http://localhost:11434" {
		t.Fatalf("TrimBaseURL = %q", got)
	}
	if got := TrimBaseURL("http://localhost:11434"); got != "http://localhost:11434" {
		t.Fatalf("TrimBaseURL = %q", got)
	}
}
