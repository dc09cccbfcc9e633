// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlgen

import (
	"testing"

	"github.com/kraklabs/kleos/internal/errors"
)

func TestParseFilter_ScalarEquality(t *testing.T) {
	filter, err := ParseFilter("--metadata-filter", `{"author":"pg"}`)
	if err != nil {
		t.Fatalf("ParseFilter() error = %v", err)
	}
	if len(filter) != 1 {
		t.Fatalf("len(filter) = %d, want 1", len(filter))
	}
	if filter[0].Key != "author" || filter[0].Op != "=" {
		t.Fatalf("filter[0] = %+v, want author equality", filter[0])
	}
}

func TestParseFilter_OperatorObjects(t *testing.T) {
	filter, err := ParseFilter("--metadata-filter", `{"score":{"$gt":50},"time":{"$lte":1700000000}}`)
	if err != nil {
		t.Fatalf("ParseFilter() error = %v", err)
	}
	if len(filter) != 2 {
		t.Fatalf("len(filter) = %d, want 2", len(filter))
	}
	// Declaration order preserved.
	if filter[0].Key != "score" || filter[0].Op != "$gt" {
		t.Fatalf("filter[0] = %+v", filter[0])
	}
	if filter[1].Key != "time" || filter[1].Op != "$lte" {
		t.Fatalf("filter[1] = %+v", filter[1])
	}
}

func TestParseFilter_ArrayValueRejected(t *testing.T) {
	_, err := ParseFilter("--metadata-filter", `{"score":[1,2]}`)
	if err == nil {
		t.Fatal("ParseFilter() accepted an array value")
	}
	if got := errors.KindOf(err); got != errors.KindInvalidJSON {
		t.Fatalf("kind = %s, want %s", got, errors.KindInvalidJSON)
	}
}

func TestParseFilter_MultipleOperatorsRejected(t *testing.T) {
	_, err := ParseFilter("--metadata-filter", `{"score":{"$gt":10,"$lt":100}}`)
	if err == nil {
		t.Fatal("ParseFilter() accepted two operators under one key")
	}
	if got := errors.KindOf(err); got != errors.KindUnsupportedOperator {
		t.Fatalf("kind = %s, want %s", got, errors.KindUnsupportedOperator)
	}
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "numeric comparison unquoted",
			raw:  `{"score":{"$gte":100}}`,
			want: "score >= 100",
		},
		{
			name: "string equality quoted",
			raw:  `{"author":"pg"}`,
			want: "author = 'pg'",
		},
		{
			name: "mixed conjunction in declaration order",
			raw:  `{"score":{"$gt":50},"by":"pg","time":{"$lt":1700000000}}`,
			want: "score > 50 AND by = 'pg' AND time < 1700000000",
		},
		{
			name: "all four operators",
			raw:  `{"a":{"$gt":1},"b":{"$gte":2},"c":{"$lt":3},"d":{"$lte":4}}`,
			want: "a > 1 AND b >= 2 AND c < 3 AND d <= 4",
		},
		{
			name: "boolean value",
			raw:  `{"dead":false}`,
			want: "dead = false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := ParseFilter("--metadata-filter", tt.raw)
			if err != nil {
				t.Fatalf("ParseFilter() error = %v", err)
			}
			got, err := compileFilter(filter)
			if err != nil {
				t.Fatalf("compileFilter() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("compileFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompileFilter_UnknownOperator(t *testing.T) {
	filter, err := ParseFilter("--metadata-filter", `{"score":{"$ne":100}}`)
	if err != nil {
		t.Fatalf("ParseFilter() error = %v", err)
	}
	_, err = compileFilter(filter)
	if err == nil {
		t.Fatal("compileFilter() accepted $ne")
	}
	if got := errors.KindOf(err); got != errors.KindUnsupportedOperator {
		t.Fatalf("kind = %s, want %s", got, errors.KindUnsupportedOperator)
	}
}

func TestCompileFilter_InvalidKey(t *testing.T) {
	filter := Filter{{Key: "bad key", Op: "=", Value: "x"}}
	_, err := compileFilter(filter)
	if err == nil {
		t.Fatal("compileFilter() accepted an unsafe key")
	}
	if got := errors.KindOf(err); got != errors.KindInvalidIdentifier {
		t.Fatalf("kind = %s, want %s", got, errors.KindInvalidIdentifier)
	}
}
