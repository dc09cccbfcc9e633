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
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/kleos/internal/errors"
	"github.com/kraklabs/kleos/internal/ui"
	"github.com/kraklabs/kleos/pkg/sqlgen"
)

// runJob dispatches the 'job' command group.
func runJob(args []string, configPath string, globals GlobalFlags) {
	if len(args) == 0 {
		jobUsage()
		os.Exit(1)
	}

	sub := args[0]
	subArgs := args[1:]

	switch sub {
	case "create":
		runJobCreate(subArgs, configPath, globals)
	case "create-hn-ingest":
		runJobCreateHNIngest(subArgs, configPath, globals)
	case "list":
		runJobList(subArgs, configPath, globals)
	case "status":
		runJobSQL(subArgs, configPath, globals, "status", sqlgen.CompileJobStatus,
			"Show the current state of a job")
	case "history":
		runJobSQL(subArgs, configPath, globals, "history", sqlgen.CompileJobHistory,
			"Show all recorded runs of a job")
	case "logs":
		runJobSQL(subArgs, configPath, globals, "logs", sqlgen.CompileJobLogs,
			"Show run timestamps and errors for a job")
	case "drop":
		runJobDrop(subArgs, configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown job command: %s\n", sub)
		jobUsage()
		os.Exit(1)
	}
}

func jobUsage() {
	fmt.Fprintf(os.Stderr, `Usage: kleos job <command> [options]

Commands:
  create <name>                      Create a scheduled job from --query statements
  create-hn-ingest <job> <kb> <table> Create a recurring HackerNews ingest job
  list                               List jobs
  status <name>                      Show a job's current state
  history <name>                     Show a job's run history
  logs <name>                        Show run timestamps and errors
  drop <name>                        Delete a job

Run 'kleos job <command> --help' for command-specific options.

`)
}

func runJobCreate(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("job create", flag.ExitOnError)
	queries := fs.StringArray("query", nil, "SQL statement for the job body (repeatable, runs in order)")
	schedule := fs.String("schedule", "", `Repeat schedule, e.g. "EVERY 1 day"`)
	start := fs.String("start", "", `Start time: "2006-01-02" or "2006-01-02 15:04:05"`)
	end := fs.String("end", "", `End time: "2006-01-02" or "2006-01-02 15:04:05"`)
	ifCond := fs.String("if", "", "Guard query; the job body runs only when it returns rows")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos job create [options] <name>

Description:
  Create a MindsDB job that runs one or more SQL statements, optionally on a
  repeating schedule within a start/end window. Statements run in the order
  the --query flags were given.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos job create refresh_hn \
    --query "INSERT INTO hn_kb SELECT title AS content, id AS id FROM hackernews.stories LATEST" \
    --schedule "EVERY 1 day"

  kleos job create bounded_job --query "RETRAIN hn_summarizer" --start "2026-09-01" --end "2026-12-31 23:59:59"

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("job name"), globals.JSON)
	}
	if len(*queries) == 0 {
		errors.FatalError(errors.NewMissingFieldError("--query"), globals.JSON)
	}
	name := fs.Arg(0)

	sql, err := sqlgen.CompileCreateJob(sqlgen.JobRequest{
		Name:       name,
		Statements: *queries,
		Schedule:   *schedule,
		Start:      *start,
		End:        *end,
		If:         *ifCond,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	printStatus(globals, fmt.Sprintf("Job '%s' created", name),
		map[string]any{"status": "created", "job": name})
}

func runJobCreateHNIngest(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("job create-hn-ingest", flag.ExitOnError)
	datasource := fs.String("hn-datasource", "hackernews", "Datasource name")
	interval := fs.String("interval", "every 1 day", "Repeat interval")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos job create-hn-ingest [options] <job> <kb> <table>

Description:
  Create a recurring job that ingests new HackerNews rows into a Knowledge
  Base. Column mappings follow the same auto-detection as 'kb ingest'; only
  rows added since the previous run are inserted.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos job create-hn-ingest refresh_stories hn_kb stories
  kleos job create-hn-ingest refresh_comments hn_kb comments --interval "every 6 hours"

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 3 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"Missing arguments",
			"job create-hn-ingest requires a job name, a knowledge base name, and a table",
			"Example: kleos job create-hn-ingest refresh_stories hn_kb stories",
		), globals.JSON)
	}
	job := fs.Arg(0)
	kb := fs.Arg(1)
	table := fs.Arg(2)

	ingest, err := sqlgen.CompileLatestIngest(kb, *datasource, table)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	sql, err := sqlgen.CompileCreateJob(sqlgen.JobRequest{
		Name:       job,
		Statements: []string{ingest},
		Schedule:   *interval,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	printStatus(globals, fmt.Sprintf("Job '%s' created (%s)", job, *interval),
		map[string]any{"status": "created", "job": job, "knowledge_base": kb, "table": table})
	if !globals.Quiet {
		ui.Infof("Monitor runs with: kleos job logs %s", job)
	}
}

func runJobList(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("job list", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos job list

Description:
  List jobs registered on the server.

Examples:
  kleos job list
  kleos job list --json

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	execAndRender(context.Background(), newClient(cfg), logger, sqlgen.CompileShowJobs(), globals)
}

// runJobSQL handles the single-argument job inspection commands, which differ
// only in the statement they compile.
func runJobSQL(args []string, configPath string, globals GlobalFlags, sub string, compile func(string) (string, error), description string) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("job "+sub, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos job %s <name>

Description:
  %s.

Examples:
  kleos job %s refresh_stories

`, sub, description, sub)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("job name"), globals.JSON)
	}

	sql, err := compile(fs.Arg(0))
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	execAndRender(context.Background(), newClient(cfg), logger, sql, globals)
}

func runJobDrop(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("job drop", flag.ExitOnError)
	yes := fs.BoolP("yes", "y", false, "Skip the confirmation prompt")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos job drop [options] <name>

Description:
  Delete a job. Prompts for confirmation unless --yes is given.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos job drop refresh_stories --yes

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("job name"), globals.JSON)
	}
	name := fs.Arg(0)

	if !*yes && !confirm(fmt.Sprintf("Drop job '%s'?", name)) {
		ui.Info("Aborted")
		return
	}

	sql, err := sqlgen.CompileDropJob(name)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	printStatus(globals, fmt.Sprintf("Job '%s' dropped", name),
		map[string]any{"status": "dropped", "job": name})
}
