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
	"log/slog"
	"os"

	"github.com/kraklabs/kleos/internal/errors"
	"github.com/kraklabs/kleos/internal/output"
	"github.com/kraklabs/kleos/pkg/mindsdb"
)

// newLogger builds the process logger from the verbosity level.
// Logs go to stderr so command output on stdout stays clean.
func newLogger(globals GlobalFlags) *slog.Logger {
	logLevel := slog.LevelWarn
	switch {
	case globals.Verbose >= 2:
		logLevel = slog.LevelDebug
	case globals.Verbose == 1:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// newClient builds a MindsDB client from the resolved configuration.
func newClient(cfg *Config) *mindsdb.Client {
	return mindsdb.New(mindsdb.Config{
		BaseURL:  cfg.Server.BaseURL,
		User:     cfg.Server.User,
		Password: cfg.Server.Password,
	})
}

// mustLoadConfig loads the configuration or exits with a config error.
func mustLoadConfig(configPath string, globals GlobalFlags) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	return cfg
}

// execAndRender runs a single statement and renders the result to stdout.
func execAndRender(ctx context.Context, client *mindsdb.Client, logger *slog.Logger, sql string, globals GlobalFlags) {
	logger.Info("sql.exec", "query", sql)
	result, err := client.Exec(ctx, sql)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	output.Print(os.Stdout, result, globals.JSON)
}
