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
// Package main implements the Kleos CLI for managing MindsDB Knowledge
// Bases, AI models, agents, and jobs from the terminal.
//
// Usage:
//
//	kleos kb create <name>            Create a Knowledge Base
//	kleos kb ingest <name> ...        Ingest data into a Knowledge Base
//	kleos kb query <name> <text>      Semantic search with metadata filters
//	kleos ai create-model <name> ...  Create an AI model
//	kleos job create <name> ...       Create a scheduled job
//	kleos setup hackernews            Create the HackerNews datasource
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/kleos/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	JSON    bool // Output in JSON format (for applicable commands)
	NoColor bool // Disable color output
	Verbose int  // Verbosity level: 0=normal, 1=-v (info), 2=-vv (debug)
	Quiet   bool // Suppress non-essential output (progress, info messages)
}

func main() {
	// Global flags with short forms
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to ~/.kleos/config.yaml (default: auto-detected)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format (for applicable commands)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	// Stop parsing at the first non-flag argument (the command name).
	// This lets subcommand-specific flags like "kb query --limit 10" reach
	// the subcommand handlers instead of being rejected here.
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Kleos - MindsDB Knowledge Base CLI

Kleos turns terminal commands into MindsDB SQL: create and query semantic
Knowledge Bases, ingest HackerNews data, deploy AI models and agents, and
schedule recurring jobs — without hand-writing the SQL yourself.

Usage:
  kleos <group> <command> [options]

Command Groups:
  kb      Knowledge Bases and agents (create, ingest, query, index,
          list-databases, create-agent, query-agent, evaluate)
  ai      AI models (create-model, list-models, describe-model,
          drop-model, refresh-model, query)
  job     Scheduled jobs (create, create-hn-ingest, list, status,
          history, logs, drop)
  setup   One-time setup (hackernews datasource)
  serve   Local HTTP bridge exposing /v1/query and /metrics
  config  Show the resolved configuration

Global Options:
  --json            Output in JSON format (for applicable commands)
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output
  -c, --config      Path to config file (default: ~/.kleos/config.yaml)
  -V, --version     Show version and exit

Examples:
  kleos setup hackernews
  kleos kb create hn_kb --id-column id
  kleos kb ingest hn_kb --from-hackernews stories --limit 50
  kleos kb query hn_kb "AI funding" --metadata-filter '{"score":{"$gt":50}}'
  kleos ai create-model summarizer --select-data-query "SELECT title, text FROM hackernews.stories" --predict-column summary
  kleos job create refresh_hn --query "INSERT INTO hn_kb SELECT title AS content, id AS id FROM hackernews.stories LATEST" --schedule "EVERY 1 day"

Environment Variables:
  KLEOS_HOST             MindsDB server URL (default: http://127.0.0.1:47334)
  OLLAMA_BASE_URL        Ollama URL (default: http://127.0.0.1:11434)
  OLLAMA_EMBEDDING_MODEL Embedding model (default: nomic-embed-text)
  GOOGLE_API_KEY         Google API key for agents

For detailed command help: kleos <group> <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("kleos version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	// Check NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	// JSON mode auto-enables quiet to keep structured output parseable
	if *jsonOutput {
		*quiet = true
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}

	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "kb":
		runKB(cmdArgs, *configPath, globals)
	case "ai":
		runAI(cmdArgs, *configPath, globals)
	case "job":
		runJob(cmdArgs, *configPath, globals)
	case "setup":
		runSetup(cmdArgs, *configPath, globals)
	case "serve":
		runServe(cmdArgs, *configPath, globals)
	case "config":
		runConfigCmd(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
