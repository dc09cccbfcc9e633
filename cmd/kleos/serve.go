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

package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/kleos/internal/errors"
	"github.com/kraklabs/kleos/pkg/mindsdb"
)

var (
	queriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kleos_queries_total",
		Help: "Total SQL statements forwarded to the MindsDB server.",
	})
	queryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kleos_query_failures_total",
		Help: "Failed SQL statements by error kind.",
	}, []string{"kind"})
)

// kleosServer bridges HTTP requests to the MindsDB SQL API.
type kleosServer struct {
	client *mindsdb.Client
	logger *slog.Logger
}

// runServe starts a local HTTP bridge exposing the query API. This lets
// scripts and dashboards reach MindsDB through Kleos without speaking the
// platform's own API or handling its credentials.
func runServe(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.StringP("port", "p", getEnv("KLEOS_SERVE_PORT", "8090"), "Listen port")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos serve [options]

Description:
  Start a local HTTP bridge to the MindsDB server.

Endpoints:
  GET  /health     Health check
  POST /v1/query   Execute SQL: {"query": "..."} -> {columns, rows, count}
  GET  /metrics    Prometheus metrics

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos serve
  kleos serve --port 9000
  curl -s localhost:8090/v1/query -d '{"query":"SHOW DATABASES"}'

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	srv := &kleosServer{
		client: newClient(cfg),
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/v1/query", srv.handleQuery)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + *port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("serve.shutdown")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	logger.Info("serve.start", "addr", server.Addr, "upstream", cfg.Server.BaseURL)
	if !globals.Quiet {
		fmt.Fprintf(os.Stderr, "Kleos bridge listening on http://localhost:%s (upstream %s)\n", *port, cfg.Server.BaseURL)
	}

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		errors.FatalError(errors.NewNetworkError(
			"Server failed",
			fmt.Sprintf("HTTP server on port %s stopped unexpectedly", *port),
			"Check that the port is free and try again",
			err,
		), globals.JSON)
	}
}

func (s *kleosServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
}

func (s *kleosServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, errors.NewInputError(
			"Invalid request body",
			"Request body must be a JSON object with a 'query' field",
			`Example: {"query": "SHOW DATABASES"}`,
		))
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, errors.NewMissingFieldError("query"))
		return
	}

	queriesTotal.Inc()
	s.logger.Info("serve.query", "query", req.Query)

	result, err := s.client.Exec(r.Context(), req.Query)
	if err != nil {
		kind := string(errors.KindOf(err))
		queryFailures.WithLabelValues(kind).Inc()
		status := http.StatusBadGateway
		if errors.KindOf(err) == errors.KindNetwork {
			status = http.StatusServiceUnavailable
		}
		writeJSONError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"columns": result.Columns,
		"rows":    result.Rows,
		"count":   len(result.Rows),
	})
}

// writeJSONError writes a structured error response matching the CLI's JSON
// error shape.
func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := map[string]any{"kind": string(errors.KindOf(err))}
	var cliErr *errors.CLIError
	if stderrors.As(err, &cliErr) {
		body["title"] = cliErr.Title
		body["detail"] = cliErr.Detail
		if cliErr.Hint != "" {
			body["hint"] = cliErr.Hint
		}
	} else {
		body["title"] = err.Error()
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"error": body})
}
