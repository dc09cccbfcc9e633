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

package sqlgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kraklabs/kleos/internal/errors"
)

// SplitColumns splits a comma-separated column list and trims each entry.
// Empty entries (",,", trailing comma) are rejected rather than dropped.
// flagName is used in error messages.
func SplitColumns(flagName, raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	cols := make([]string, 0, len(parts))
	for _, part := range parts {
		col := strings.TrimSpace(part)
		if col == "" {
			return nil, errors.NewInputError(
				fmt.Sprintf("Empty column in %s", flagName),
				fmt.Sprintf("the list %q contains an empty entry", raw),
				"Remove stray commas, e.g. --content-columns 'title,text'",
			)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// objectField is one key/value pair of a JSON object with its declaration
// position preserved.
type objectField struct {
	Key   string
	Value any
}

// parseOrderedObject decodes a JSON object while preserving key order.
// encoding/json's map decoding would randomize it, and the compiler needs
// declaration order to emit deterministic SQL.
func parseOrderedObject(raw string) ([]objectField, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var fields []objectField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", keyTok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		fields = append(fields, objectField{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected trailing data after JSON object")
	}
	return fields, nil
}

// ParseMetadataMap parses a --metadata-map JSON value: an object mapping
// destination metadata keys to source column names. Declaration order is
// preserved. Keys must be unique and values must be strings.
func ParseMetadataMap(flagName, raw string) ([]MetadataColumn, error) {
	fields, err := parseOrderedObject(raw)
	if err != nil {
		return nil, errors.NewInvalidJSONError(flagName, raw, err)
	}

	seen := make(map[string]bool, len(fields))
	cols := make([]MetadataColumn, 0, len(fields))
	for _, f := range fields {
		src, ok := f.Value.(string)
		if !ok {
			return nil, errors.NewInvalidJSONError(flagName, raw,
				fmt.Errorf("value for key %q must be a source column name (string)", f.Key))
		}
		if seen[f.Key] {
			return nil, errors.NewInvalidJSONError(flagName, raw,
				fmt.Errorf("duplicate metadata key %q", f.Key))
		}
		seen[f.Key] = true
		cols = append(cols, MetadataColumn{Key: f.Key, Source: src})
	}
	return cols, nil
}

// ParseParams parses repeated --param key=value flags into an ordered Param
// list. Duplicate keys are allowed; order is preserved.
func ParseParams(flagName string, raw []string) ([]Param, error) {
	params := make([]Param, 0, len(raw))
	for _, kv := range raw {
		key, value, found := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, errors.NewInputError(
				fmt.Sprintf("Invalid %s value", flagName),
				fmt.Sprintf("%q is not in key=value form", kv),
				fmt.Sprintf("Use %s key=value, e.g. %s temperature=0.5", flagName, flagName),
			)
		}
		params = append(params, Param{Key: key, Value: value})
	}
	return params, nil
}

// identityMetadata builds an identity-named metadata mapping for the given
// source columns.
func identityMetadata(columns ...string) []MetadataColumn {
	cols := make([]MetadataColumn, len(columns))
	for i, c := range columns {
		cols[i] = MetadataColumn{Key: c, Source: c}
	}
	return cols
}

// DefaultIngestColumns returns the content columns and metadata mapping for
// a recognized source table kind. The lookup is a pure function of the
// table name; it never inspects the remote schema.
//
// Explicit --content-columns / --metadata-map flags replace the
// corresponding default entirely; there is no merging.
func DefaultIngestColumns(table string) (content []string, metadata []MetadataColumn) {
	switch table {
	case "stories":
		return []string{"title", "text"},
			identityMetadata("id", "by", "score", "time", "descendants", "url")
	case "comments":
		return []string{"text"},
			identityMetadata("id", "by", "parent", "time")
	default:
		return []string{"text"}, identityMetadata("id")
	}
}

// DefaultJobColumns returns the insert/select column pairing used by the
// scheduled LATEST-ingest job for a recognized table kind.
func DefaultJobColumns(table string) (insertCols, selectCols string) {
	switch table {
	case "stories":
		return "(content, story_id, author)", "title, id, by"
	case "comments":
		return "(content, comment_id, author)", "text, id, by"
	default:
		return "(content, original_id)", "text, id"
	}
}

// TrimBaseURL strips the trailing slash providers reject.
func TrimBaseURL(u string) string {
	return strings.TrimRight(u, "/")
}
