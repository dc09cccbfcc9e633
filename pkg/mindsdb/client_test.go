// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package mindsdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/kleos/internal/errors"
)

func TestExec_Table(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/sql/query", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotQuery = req["query"]

		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":         "table",
			"column_names": []string{"name", "score"},
			"data":         [][]any{{"story one", 120}, {"story two", 40}},
		})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	result, err := client.Exec(context.Background(), "SELECT * FROM hn_kb;")
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM hn_kb;", gotQuery)
	assert.Equal(t, []string{"name", "score"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.False(t, result.Empty())
}

func TestExec_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"type": "ok"})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	result, err := client.Exec(context.Background(), "CREATE KNOWLEDGE_BASE hn_kb;")
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestExec_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":          "error",
			"error_message": "Knowledge base hn_kb does not exist",
		})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	_, err := client.Exec(context.Background(), "SELECT * FROM hn_kb;")
	require.Error(t, err)

	assert.Equal(t, errors.KindRemote, errors.KindOf(err))
	cliErr := err.(*errors.CLIError)
	// The original remote message survives in the detail.
	assert.Contains(t, cliErr.Detail, "does not exist")
	assert.Contains(t, cliErr.Title, ClassKBNotFound)
}

func TestExec_BasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "mindsdb", user)
		assert.Equal(t, "secret", pass)
		_ = json.NewEncoder(w).Encode(map[string]any{"type": "ok"})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, User: "mindsdb", Password: "secret"})
	_, err := client.Exec(context.Background(), "SHOW DATABASES;")
	require.NoError(t, err)
}

func TestExec_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	client := New(Config{BaseURL: srv.URL})
	_, err := client.Exec(context.Background(), "SHOW DATABASES;")
	require.Error(t, err)
	assert.Equal(t, errors.KindNetwork, errors.KindOf(err))
}

func TestExecAll_StopsAtFirstFailure(t *testing.T) {
	var received []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		received = append(received, req["query"])

		if len(received) == 2 {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type":          "error",
				"error_message": "syntax error at line 1",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"type": "ok"})
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL})
	results, err := client.ExecAll(context.Background(), []string{"SELECT 1;", "BROKEN;", "SELECT 3;"})
	require.Error(t, err)

	// The third statement is never issued after the second fails.
	assert.Equal(t, []string{"SELECT 1;", "BROKEN;"}, received)
	assert.Len(t, results, 1)
}
