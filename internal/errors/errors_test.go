// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "input", err: NewInputError("t", "d", "h"), want: KindInput},
		{name: "invalid json", err: NewInvalidJSONError("--metadata-filter", "{", fmt.Errorf("eof")), want: KindInvalidJSON},
		{name: "missing field", err: NewMissingFieldError("name"), want: KindMissingField},
		{name: "invalid identifier", err: NewInvalidIdentifierError("column", "bad col"), want: KindInvalidIdentifier},
		{name: "unsupported operator", err: NewUnsupportedOperatorError("$ne"), want: KindUnsupportedOperator},
		{name: "remote", err: NewRemoteError("t", "d", "h", nil), want: KindRemote},
		{name: "foreign error", err: fmt.Errorf("plain"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCLIError_Error(t *testing.T) {
	err := NewInputError("Bad flag", "the value is wrong", "fix it")
	if got := err.Error(); got != "Bad flag: the value is wrong" {
		t.Fatalf("Error() = %q", got)
	}

	bare := &CLIError{Kind: KindInternal, Title: "Oops"}
	if got := bare.Error(); got != "Oops" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestCLIError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewConfigError("t", "d", "h", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("errors.Is did not find the wrapped cause")
	}
}

func TestNewInvalidJSONError_NamesFlagAndEchoesRaw(t *testing.T) {
	err := NewInvalidJSONError("--metadata-filter", `{"score":`, fmt.Errorf("unexpected EOF"))
	if !strings.Contains(err.Title, "--metadata-filter") {
		t.Fatalf("Title %q does not name the flag", err.Title)
	}
	if !strings.Contains(err.Detail, `{\"score\":`) && !strings.Contains(err.Detail, `{"score":`) {
		t.Fatalf("Detail %q does not echo the raw value", err.Detail)
	}
}
