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
	"regexp"
	"strings"

	"github.com/kraklabs/kleos/internal/errors"
)

// identifierPattern is the safety pattern for every name embedded unquoted
// in generated SQL: knowledge bases, agents, models, jobs, columns,
// datasources. Names are validated, never sanitized.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// orderByPattern accepts a column name with an optional sort direction.
var orderByPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*( (?i:ASC|DESC))?$`)

// schedulePattern accepts job schedule expressions such as "EVERY 1 day" or
// "every 15 minutes". Anything outside letters, digits, and spaces is
// rejected because the schedule is emitted unquoted.
var schedulePattern = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)

// ValidateIdentifier checks name against the identifier-safety pattern.
// what names the field for the error message ("knowledge base name",
// "column", ...).
func ValidateIdentifier(what, name string) error {
	if name == "" {
		return errors.NewMissingFieldError(what)
	}
	if !identifierPattern.MatchString(name) {
		return errors.NewInvalidIdentifierError(what, name)
	}
	return nil
}

// ValidateQualified checks a dotted datasource.table reference. Each dotted
// part must independently pass the identifier check.
func ValidateQualified(what, name string) error {
	if name == "" {
		return errors.NewMissingFieldError(what)
	}
	for _, part := range strings.Split(name, ".") {
		if !identifierPattern.MatchString(part) {
			return errors.NewInvalidIdentifierError(what, name)
		}
	}
	return nil
}

// QuoteLiteral wraps s in the dialect's single-quote literal syntax.
// Embedded single quotes are doubled (the standard SQL escape). Backslashes
// pass through unescaped: the target dialect does not interpret them
// specially inside string literals.
//
// This is the only place literal quoting happens; every compiled statement
// goes through it.
func QuoteLiteral(s string) string {
	var buf strings.Builder
	buf.Grow(len(s) + 10)
	buf.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			buf.WriteString("''")
			continue
		}
		// Null bytes would terminate the literal server-side.
		if r == 0 {
			continue
		}
		buf.WriteRune(r)
	}
	buf.WriteByte('\'')
	return buf.String()
}

// QuoteScalar renders a JSON-derived scalar as a SQL literal: numbers and
// booleans unquoted, NULL for nil, everything else through QuoteLiteral.
func QuoteScalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case json.Number:
		return val.String()
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		// Trim the decimal for whole numbers so 100.0 renders as 100.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case string:
		return QuoteLiteral(val)
	default:
		return QuoteLiteral(fmt.Sprintf("%v", val))
	}
}

// quoteStringArray renders a list of strings as an array literal:
// ['a', 'b'].
func quoteStringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = QuoteLiteral(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// paramValue renders a pass-through parameter value. CLI parameters arrive
// as strings; values that read as numbers or booleans are emitted unquoted
// so `--param temperature 0.5` reaches the platform as a number.
func paramValue(v string) string {
	switch strings.ToLower(v) {
	case "true":
		return "true"
	case "false":
		return "false"
	}
	if n := json.Number(v); n != "" {
		if _, err := n.Int64(); err == nil {
			return v
		}
		if _, err := n.Float64(); err == nil {
			return v
		}
	}
	return QuoteLiteral(v)
}
