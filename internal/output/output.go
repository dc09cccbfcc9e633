// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package output renders query results as terminal tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/kraklabs/kleos/pkg/mindsdb"
)

// maxCellWidth truncates long cell values so tables stay readable.
const maxCellWidth = 60

// Print renders a result to w: a tab-aligned table by default, a JSON
// object in jsonMode. An empty result renders a distinct "No results"
// message, never an empty table.
func Print(w io.Writer, result *mindsdb.Result, jsonMode bool) {
	if jsonMode {
		PrintJSON(w, result)
		return
	}
	PrintTable(w, result)
}

// PrintJSON writes the result as an indented JSON object with columns,
// rows, and a row count.
func PrintJSON(w io.Writer, result *mindsdb.Result) {
	out := map[string]any{
		"columns": result.Columns,
		"rows":    result.Rows,
		"count":   len(result.Rows),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

// JSON writes any value to stdout as indented JSON. Used by commands whose
// output is a structure rather than a query result.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintTable writes the result as a header row, a separator, and the data
// rows, tab-aligned. Column order follows the result's column order.
func PrintTable(w io.Writer, result *mindsdb.Result) {
	if result.Empty() {
		fmt.Fprintln(w, "No results")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, col := range result.Columns {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, strings.ToUpper(col))
	}
	_, _ = fmt.Fprintln(tw)

	for i := range result.Columns {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, "---")
	}
	_, _ = fmt.Fprintln(tw)

	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, FormatCell(cell))
		}
		_, _ = fmt.Fprintln(tw)
	}

	_ = tw.Flush()
	fmt.Fprintf(w, "\n(%d rows)\n", len(result.Rows))
}

// FormatCell renders one cell value for table display. Long strings are
// truncated; whole floats drop the decimal point.
func FormatCell(v any) string {
	switch val := v.(type) {
	case string:
		return truncate(val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case nil:
		return "<null>"
	default:
		return truncate(fmt.Sprintf("%v", val))
	}
}

func truncate(s string) string {
	// Newlines wreck tabwriter alignment.
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxCellWidth {
		return s[:maxCellWidth-3] + "..."
	}
	return s
}
