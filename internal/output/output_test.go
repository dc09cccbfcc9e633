// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/kraklabs/kleos/pkg/mindsdb"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, &mindsdb.Result{
		Columns: []string{"name", "score"},
		Rows: [][]any{
			{"Show HN: Kleos", float64(120)},
			{"Ask HN: Go or Rust?", float64(40)},
		},
	})

	out := buf.String()
	if !strings.Contains(out, "NAME") || !strings.Contains(out, "SCORE") {
		t.Fatalf("headers missing or not uppercased:\n%s", out)
	}
	if !strings.Contains(out, "Show HN: Kleos") {
		t.Fatalf("row data missing:\n%s", out)
	}
	if !strings.Contains(out, "(2 rows)") {
		t.Fatalf("row count footer missing:\n%s", out)
	}
	// Column order follows the result's order.
	if strings.Index(out, "NAME") > strings.Index(out, "SCORE") {
		t.Fatalf("column order not preserved:\n%s", out)
	}
}

func TestPrintTable_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, &mindsdb.Result{Columns: []string{"name"}})

	out := buf.String()
	if !strings.Contains(out, "No results") {
		t.Fatalf("empty result did not render the no-results message:\n%s", out)
	}
	if strings.Contains(out, "NAME") {
		t.Fatalf("empty result rendered a table header:\n%s", out)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	PrintJSON(&buf, &mindsdb.Result{
		Columns: []string{"name"},
		Rows:    [][]any{{"a"}, {"b"}},
	})

	var decoded struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
		Count   int      `json:"count"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("PrintJSON produced invalid JSON: %v", err)
	}
	if decoded.Count != 2 || len(decoded.Rows) != 2 {
		t.Fatalf("decoded = %+v, want count 2", decoded)
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "string", in: "hello", want: "hello"},
		{name: "whole float renders as int", in: float64(42), want: "42"},
		{name: "fractional float", in: 0.755, want: "0.76"},
		{name: "nil", in: nil, want: "<null>"},
		{name: "newlines flattened", in: "a\nb", want: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCell(tt.in); got != tt.want {
				t.Fatalf("FormatCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCell_Truncation(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := FormatCell(long)
	if len(got) != maxCellWidth {
		t.Fatalf("len = %d, want %d", len(got), maxCellWidth)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated value %q missing ellipsis", got)
	}
}
