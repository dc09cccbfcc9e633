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
	"fmt"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/kleos/internal/errors"
	"github.com/kraklabs/kleos/internal/ui"
	"github.com/kraklabs/kleos/pkg/mindsdb"
	"github.com/kraklabs/kleos/pkg/sqlgen"
)

// runSetup dispatches the 'setup' command group.
func runSetup(args []string, configPath string, globals GlobalFlags) {
	if len(args) == 0 {
		setupUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "hackernews":
		runSetupHackerNews(args[1:], configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown setup command: %s\n", args[0])
		setupUsage()
		os.Exit(1)
	}
}

func setupUsage() {
	fmt.Fprintf(os.Stderr, `Usage: kleos setup <command> [options]

Commands:
  hackernews   Connect the HackerNews datasource

`)
}

func runSetupHackerNews(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("setup hackernews", flag.ExitOnError)
	name := fs.String("name", "hackernews", "Datasource name")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos setup hackernews [options]

Description:
  Connect the built-in HackerNews datasource to the MindsDB server. This is
  a one-time step; 'kb ingest' and 'job create-hn-ingest' read from it.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos setup hackernews
  kleos setup hackernews --name hn

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	client := newClient(cfg)
	ctx := context.Background()

	if !globals.Quiet {
		ui.Header("HackerNews setup")
	}

	exists, err := databaseExists(ctx, client, logger, *name)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if exists {
		printStatus(globals, fmt.Sprintf("Datasource '%s' already connected", *name),
			map[string]any{"status": "exists", "datasource": *name})
		return
	}

	sql, err := sqlgen.CompileCreateDatabase(*name, "hackernews")
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := client.Exec(ctx, sql); err != nil && !mindsdb.IsAlreadyExists(err) {
		errors.FatalError(err, globals.JSON)
	}

	// The datasource can take a moment to show up in the catalog after
	// creation; poll until it does.
	progressCfg := NewProgressConfig(globals)
	spinner := NewSpinner(progressCfg, "Verifying datasource")
	verified := false
	for attempt := 0; attempt < 10; attempt++ {
		exists, err = databaseExists(ctx, client, logger, *name)
		if err == nil && exists {
			verified = true
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	finishBar(spinner)

	if !verified {
		errors.FatalError(errors.NewRemoteError(
			"Datasource verification failed",
			fmt.Sprintf("Created datasource '%s' but it did not appear in SHOW DATABASES", *name),
			"Check the MindsDB server logs, then retry 'kleos setup hackernews'",
			nil,
		), globals.JSON)
	}

	printStatus(globals, fmt.Sprintf("Datasource '%s' connected", *name),
		map[string]any{"status": "created", "datasource": *name})
	if !globals.Quiet {
		ui.Infof("Next: kleos kb create hn_kb && kleos kb ingest hn_kb --from-hackernews stories")
	}
}

// databaseExists reports whether SHOW DATABASES lists the given name.
func databaseExists(ctx context.Context, client *mindsdb.Client, logger *slog.Logger, name string) (bool, error) {
	sql := sqlgen.CompileShowDatabases()
	logger.Info("sql.exec", "query", sql)
	result, err := client.Exec(ctx, sql)
	if err != nil {
		return false, err
	}
	for _, row := range result.Rows {
		if len(row) > 0 {
			if s, ok := row[0].(string); ok && s == name {
				return true, nil
			}
		}
	}
	return false, nil
}
