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
	"fmt"
	"strings"

	"github.com/kraklabs/kleos/internal/errors"
)

// opEquality marks a bare-literal condition (no $-operator).
const opEquality = "="

// filterOps maps the filter language's operator symbols to SQL.
var filterOps = map[string]string{
	"$gt":  ">",
	"$gte": ">=",
	"$lt":  "<",
	"$lte": "<=",
}

// Condition is one metadata constraint: a key, an operator symbol ("$gt",
// "$gte", "$lt", "$lte", or "=" for equality), and a scalar value.
type Condition struct {
	Key   string
	Op    string
	Value any
}

// Filter is an ordered conjunction of metadata conditions. Distinct keys
// are implicitly joined with AND; the declaration order from the user's
// JSON is preserved so compilation is deterministic.
type Filter []Condition

// ParseFilter parses a --metadata-filter JSON value. Each key maps either
// to a literal scalar (equality) or to a single {"$op": scalar} object.
// flagName is used in error messages.
//
// Operator validity is checked at compile time, not here, so an unknown
// operator surfaces as UnsupportedOperator rather than InvalidJSON.
func ParseFilter(flagName, raw string) (Filter, error) {
	fields, err := parseOrderedObject(raw)
	if err != nil {
		return nil, errors.NewInvalidJSONError(flagName, raw, err)
	}

	filter := make(Filter, 0, len(fields))
	for _, f := range fields {
		switch val := f.Value.(type) {
		case map[string]any:
			if len(val) != 1 {
				return nil, &errors.CLIError{
					Kind:   errors.KindUnsupportedOperator,
					Title:  "Unsupported filter operator usage",
					Detail: fmt.Sprintf("key %q nests %d operators; exactly one is allowed", f.Key, len(val)),
					Hint:   "Use a single operator per key, e.g. {\"score\": {\"$gte\": 100}}",
				}
			}
			for op, scalar := range val {
				filter = append(filter, Condition{Key: f.Key, Op: op, Value: scalar})
			}
		case []any:
			return nil, errors.NewInvalidJSONError(flagName, raw,
				fmt.Errorf("key %q maps to an array; filters take scalars or {\"$op\": scalar}", f.Key))
		default:
			filter = append(filter, Condition{Key: f.Key, Op: opEquality, Value: val})
		}
	}
	return filter, nil
}

// compileFilter renders the filter as AND-joined SQL comparison clauses.
// Keys are validated as identifiers; an operator outside the supported set
// is an UnsupportedOperator error, never silently dropped.
func compileFilter(filter Filter) (string, error) {
	clauses := make([]string, 0, len(filter))
	for _, cond := range filter {
		if err := ValidateIdentifier("metadata key", cond.Key); err != nil {
			return "", err
		}
		op := cond.Op
		if op != opEquality {
			sqlOp, ok := filterOps[cond.Op]
			if !ok {
				return "", errors.NewUnsupportedOperatorError(cond.Op)
			}
			op = sqlOp
		}
		clauses = append(clauses, fmt.Sprintf("%s %s %s", cond.Key, op, QuoteScalar(cond.Value)))
	}
	return strings.Join(clauses, " AND "), nil
}
