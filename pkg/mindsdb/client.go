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

// Package mindsdb executes SQL text against a MindsDB-compatible platform
// over its HTTP SQL API and classifies the platform's failures.
//
// The package owns the whole collaborator boundary: callers hand it a SQL
// string and get back either a tabular Result (possibly zero rows) or a
// classified error. It performs no retries and no interpretation of row
// contents.
package mindsdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kraklabs/kleos/internal/errors"
)

// queryPath is the platform's SQL-over-HTTP endpoint.
const queryPath = "/api/sql/query"

// Config holds the connection settings for a Client.
type Config struct {
	BaseURL  string
	User     string // optional basic-auth credentials
	Password string
	Timeout  time.Duration // per-request; 0 means 60s
}

// Client is a stateless HTTP client for the platform's SQL API. It is safe
// for concurrent use.
type Client struct {
	baseURL  string
	user     string
	password string
	http     *http.Client
}

// Result is a tabular query result. Zero rows is a success, distinct from
// failure.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the result carries no rows.
func (r *Result) Empty() bool { return len(r.Rows) == 0 }

// New creates a Client for the given connection settings.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		user:     cfg.User,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}
}

// sqlResponse is the platform's wire shape for queryPath. type is "table"
// for row-bearing results, "ok" for DDL/DML acknowledgements, and "error"
// for failures.
type sqlResponse struct {
	Type         string   `json:"type"`
	ColumnNames  []string `json:"column_names"`
	Data         [][]any  `json:"data"`
	ErrorMessage string   `json:"error_message"`
}

// Exec runs one SQL statement and returns its tabular result. Remote
// failures come back as classified *errors.CLIError values; transport
// failures are network errors.
func (c *Client) Exec(ctx context.Context, sql string) (*Result, error) {
	body, err := json.Marshal(map[string]string{"query": sql})
	if err != nil {
		return nil, errors.NewInternalError(
			"Cannot encode query request",
			"JSON encoding failed unexpectedly",
			"This is a bug. Please report it",
			err,
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+queryPath, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError(
			"Cannot build query request",
			err.Error(),
			"Check the configured server URL",
			err,
		)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(
			"Cannot connect to the MindsDB server",
			fmt.Sprintf("Failed to reach %s%s: %v", c.baseURL, queryPath, err),
			"Check that the server is running and the configured URL is correct",
			err,
		)
	}
	defer func() { _ = resp.Body.Close() }()

	var decoded sqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.NewInternalError(
			"Invalid response from server",
			fmt.Sprintf("Could not parse the server response (HTTP %d)", resp.StatusCode),
			"Check the server logs for errors",
			err,
		)
	}

	switch decoded.Type {
	case "error":
		return nil, ClassifyRemote(decoded.ErrorMessage)
	case "table":
		return &Result{Columns: decoded.ColumnNames, Rows: decoded.Data}, nil
	case "ok", "":
		if resp.StatusCode >= 400 {
			return nil, ClassifyRemote(fmt.Sprintf("HTTP %d from %s", resp.StatusCode, queryPath))
		}
		return &Result{}, nil
	default:
		return nil, errors.NewInternalError(
			"Unexpected response type from server",
			fmt.Sprintf("response type %q is not recognized", decoded.Type),
			"Check that the server speaks the MindsDB SQL-over-HTTP API",
			nil,
		)
	}
}

// ExecAll runs statements strictly in order, stopping at the first failure.
// It returns the results of the statements that ran. A later statement is
// never issued after an earlier one fails.
func (c *Client) ExecAll(ctx context.Context, statements []string) ([]*Result, error) {
	results := make([]*Result, 0, len(statements))
	for _, stmt := range statements {
		res, err := c.Exec(ctx, stmt)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
