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

package mindsdb

import (
	"strings"

	"github.com/kraklabs/kleos/internal/errors"
)

// Stable local classifications for remote failures. The platform exposes
// no structured error taxonomy, so classification pattern-matches the
// message text. The original remote message is always preserved in the
// error detail.
const (
	ClassAlreadyExists = "object already exists"
	ClassTableNotFound = "table not found"
	ClassKBNotFound    = "knowledge base not found"
	ClassModelFailure  = "model/agent creation failure"
	ClassConnection    = "connection error"
	ClassSyntax        = "sql syntax error"
	ClassUnknown       = "remote error"
)

// classifyMessage maps a remote error message to a stable class.
func classifyMessage(msg string) string {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "already exists") || strings.Contains(m, "already created"):
		return ClassAlreadyExists
	case strings.Contains(m, "can't select from") && strings.Contains(m, "unknown"):
		return ClassTableNotFound
	case strings.Contains(m, "table") && (strings.Contains(m, "not found") || strings.Contains(m, "does not exist") || strings.Contains(m, "not exists")):
		return ClassTableNotFound
	case strings.Contains(m, "knowledge base") && (strings.Contains(m, "not found") || strings.Contains(m, "does not exist")):
		return ClassKBNotFound
	case strings.Contains(m, "connection refused") || strings.Contains(m, "timed out") || strings.Contains(m, "timeout") || strings.Contains(m, "no such host"):
		return ClassConnection
	case strings.Contains(m, "syntax error") || strings.Contains(m, "parse error") || strings.Contains(m, "parsing error"):
		return ClassSyntax
	case (strings.Contains(m, "model") || strings.Contains(m, "predictor") || strings.Contains(m, "agent")) &&
		(strings.Contains(m, "error") || strings.Contains(m, "fail")):
		return ClassModelFailure
	default:
		return ClassUnknown
	}
}

// hints per class; empty classes fall back to a generic hint.
var classHints = map[string]string{
	ClassAlreadyExists: "The object is already there; drop it first if you want to recreate it",
	ClassTableNotFound: "Check the datasource and table name, or run 'kleos setup hackernews' to create the datasource",
	ClassKBNotFound:    "Run 'kleos kb create <name>' first",
	ClassConnection:    "Check that the MindsDB server is running and reachable",
	ClassSyntax:        "This usually indicates a malformed pass-through query",
	ClassModelFailure:  "Run 'kleos ai describe-model <name>' for the engine's error detail",
}

// ClassifyRemote wraps a remote failure message in a classified error. The
// title carries the stable classification prefix; detail preserves the
// remote text verbatim.
func ClassifyRemote(msg string) *errors.CLIError {
	class := classifyMessage(msg)
	hint := classHints[class]
	if hint == "" {
		hint = "Re-run the command after addressing the reported problem"
	}
	return errors.NewRemoteError("Remote failure: "+class, msg, hint, nil)
}

// IsAlreadyExists reports whether err is a remote failure classified as
// "object already exists". Create operations treat this as success.
func IsAlreadyExists(err error) bool {
	ce, ok := err.(*errors.CLIError)
	if !ok || ce.Kind != errors.KindRemote {
		return false
	}
	return strings.HasSuffix(ce.Title, ClassAlreadyExists)
}
