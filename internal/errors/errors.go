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

// Package errors provides the classified error taxonomy for the Kleos CLI.
//
// Every error shown to the user carries a stable Kind, a short Title, a
// Detail line, and a Hint suggesting what to do next. Raw remote stack
// traces never cross this boundary.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind classifies a CLI error into one of the stable categories.
type Kind string

const (
	// KindInvalidJSON marks malformed JSON supplied via a flag value.
	KindInvalidJSON Kind = "invalid_json"
	// KindMissingField marks a required field absent after normalization.
	KindMissingField Kind = "missing_required_field"
	// KindInvalidIdentifier marks a name failing the identifier-safety check.
	KindInvalidIdentifier Kind = "invalid_identifier"
	// KindUnsupportedOperator marks a metadata-filter operator outside the
	// supported set ($gt, $gte, $lt, $lte).
	KindUnsupportedOperator Kind = "unsupported_operator"
	// KindRemote marks a failure reported by the remote platform.
	KindRemote Kind = "remote_failure"
	// KindInput marks invalid command-line input (missing args, bad flags).
	KindInput Kind = "input"
	// KindConfig marks configuration file problems.
	KindConfig Kind = "config"
	// KindNetwork marks transport failures reaching the server.
	KindNetwork Kind = "network"
	// KindInternal marks bugs and unexpected conditions.
	KindInternal Kind = "internal"
)

// CLIError is the error type surfaced to users.
type CLIError struct {
	Kind   Kind
	Title  string
	Detail string
	Hint   string
	Err    error // wrapped cause, never shown raw in JSON output
}

func (e *CLIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

func (e *CLIError) Unwrap() error { return e.Err }

// NewInputError reports invalid command-line input.
func NewInputError(title, detail, hint string) *CLIError {
	return &CLIError{Kind: KindInput, Title: title, Detail: detail, Hint: hint}
}

// NewConfigError reports a configuration problem.
func NewConfigError(title, detail, hint string, err error) *CLIError {
	return &CLIError{Kind: KindConfig, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewNetworkError reports a transport failure reaching the server.
func NewNetworkError(title, detail, hint string, err error) *CLIError {
	return &CLIError{Kind: KindNetwork, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewInternalError reports an unexpected condition.
func NewInternalError(title, detail, hint string, err error) *CLIError {
	return &CLIError{Kind: KindInternal, Title: title, Detail: detail, Hint: hint, Err: err}
}

// NewInvalidJSONError reports malformed JSON in a flag value. The message
// names the flag and echoes the raw text, because shell quoting differences
// are the dominant failure mode here.
func NewInvalidJSONError(flagName, raw string, err error) *CLIError {
	return &CLIError{
		Kind:   KindInvalidJSON,
		Title:  fmt.Sprintf("Invalid JSON in %s", flagName),
		Detail: fmt.Sprintf("could not parse %q: %v", raw, err),
		Hint:   "Check shell quoting: wrap the JSON in single quotes and use double quotes inside, e.g. --metadata-filter '{\"score\": 100}'",
		Err:    err,
	}
}

// NewMissingFieldError reports a required field absent after normalization.
func NewMissingFieldError(field string) *CLIError {
	return &CLIError{
		Kind:   KindMissingField,
		Title:  "Missing required field",
		Detail: fmt.Sprintf("field %q is required and was empty", field),
		Hint:   fmt.Sprintf("Provide a value for %s", field),
	}
}

// NewInvalidIdentifierError reports a name failing the identifier-safety
// pattern. Names are never sanitized silently.
func NewInvalidIdentifierError(what, value string) *CLIError {
	return &CLIError{
		Kind:   KindInvalidIdentifier,
		Title:  fmt.Sprintf("Invalid %s", what),
		Detail: fmt.Sprintf("%q may only contain letters, digits, and underscores", value),
		Hint:   "Rename the object using only [A-Za-z0-9_] characters",
	}
}

// NewUnsupportedOperatorError reports a filter operator outside the
// supported comparison set.
func NewUnsupportedOperatorError(op string) *CLIError {
	return &CLIError{
		Kind:   KindUnsupportedOperator,
		Title:  "Unsupported filter operator",
		Detail: fmt.Sprintf("operator %q is not supported", op),
		Hint:   "Supported operators: $gt, $gte, $lt, $lte (or a bare value for equality)",
	}
}

// NewRemoteError reports a failure returned by the remote platform. The
// title carries the stable local classification; detail preserves the
// original remote message.
func NewRemoteError(title, detail, hint string, err error) *CLIError {
	return &CLIError{Kind: KindRemote, Title: title, Detail: detail, Hint: hint, Err: err}
}

// FatalError prints err and exits with status 1.
//
// In JSON mode the error is emitted as a machine-readable object on stdout
// so callers piping --json output still get structured data. Otherwise a
// human-readable block goes to stderr.
func FatalError(err error, jsonMode bool) {
	PrintError(err, jsonMode)
	os.Exit(1)
}

// PrintError renders err without exiting. Split out from FatalError so the
// dispatcher can report per-statement failures in multi-statement runs.
func PrintError(err error, jsonMode bool) {
	ce, ok := err.(*CLIError)
	if !ok {
		ce = &CLIError{Kind: KindInternal, Title: "Unexpected error", Detail: err.Error()}
	}

	if jsonMode {
		out := map[string]any{
			"error": map[string]any{
				"kind":   string(ce.Kind),
				"title":  ce.Title,
				"detail": ce.Detail,
				"hint":   ce.Hint,
			},
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", ce.Title)
	if ce.Detail != "" {
		fmt.Fprintf(os.Stderr, "  %s\n", ce.Detail)
	}
	if ce.Hint != "" {
		fmt.Fprintf(os.Stderr, "  Hint: %s\n", ce.Hint)
	}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if ce, ok := err.(*CLIError); ok {
		return ce.Kind
	}
	return KindInternal
}
