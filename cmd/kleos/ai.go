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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/kleos/internal/errors"
	"github.com/kraklabs/kleos/internal/output"
	"github.com/kraklabs/kleos/internal/ui"
	"github.com/kraklabs/kleos/pkg/mindsdb"
	"github.com/kraklabs/kleos/pkg/sqlgen"
)

// runAI dispatches the 'ai' command group.
func runAI(args []string, configPath string, globals GlobalFlags) {
	if len(args) == 0 {
		aiUsage()
		os.Exit(1)
	}

	sub := args[0]
	subArgs := args[1:]

	switch sub {
	case "create-model":
		runAICreateModel(subArgs, configPath, globals)
	case "list-models":
		runAIListModels(subArgs, configPath, globals)
	case "describe-model":
		runAIDescribeModel(subArgs, configPath, globals)
	case "drop-model":
		runAIDropModel(subArgs, configPath, globals)
	case "refresh-model":
		runAIRefreshModel(subArgs, configPath, globals)
	case "query":
		runAIQuery(subArgs, configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown ai command: %s\n", sub)
		aiUsage()
		os.Exit(1)
	}
}

func aiUsage() {
	fmt.Fprintf(os.Stderr, `Usage: kleos ai <command> [options]

Commands:
  create-model <name>    Create an AI model trained on a SELECT query
  list-models            List deployed models
  describe-model <name>  Show model status and details
  drop-model <name>      Delete a model
  refresh-model <name>   Retrain a model on fresh data
  query <sql>            Run raw SQL against the server

Run 'kleos ai <command> --help' for command-specific options.

`)
}

func runAICreateModel(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("ai create-model", flag.ExitOnError)
	selectQuery := fs.String("select-data-query", "", "Training data SELECT query (required)")
	predictColumn := fs.String("predict-column", "", "Column the model should predict (required)")
	engine := fs.String("engine", "openai", "Model engine")
	promptTemplate := fs.String("prompt-template", "", "Prompt template for LLM engines")
	params := fs.StringArray("param", nil, "Extra USING parameter as key=value (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos ai create-model [options] <name>

Description:
  Create an AI model trained on the rows returned by --select-data-query.
  The model learns to predict --predict-column and can then be queried like
  a table.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos ai create-model hn_summarizer \
    --select-data-query "SELECT title, text FROM hackernews.stories LIMIT 100" \
    --predict-column summary \
    --prompt-template "Summarize this story: {{title}} {{text}}"

  kleos ai create-model scorer --select-data-query "SELECT * FROM hackernews.stories" --predict-column score --engine lightwood

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("model name"), globals.JSON)
	}
	if *selectQuery == "" {
		errors.FatalError(errors.NewMissingFieldError("--select-data-query"), globals.JSON)
	}
	if *predictColumn == "" {
		errors.FatalError(errors.NewMissingFieldError("--predict-column"), globals.JSON)
	}
	name := fs.Arg(0)

	parsedParams, err := sqlgen.ParseParams("--param", *params)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	sql, err := sqlgen.CompileCreateModel(sqlgen.CreateModelRequest{
		Name:            name,
		SelectDataQuery: *selectQuery,
		PredictColumn:   *predictColumn,
		Engine:          *engine,
		PromptTemplate:  *promptTemplate,
		Params:          parsedParams,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		if mindsdb.IsAlreadyExists(err) {
			printStatus(globals, fmt.Sprintf("Model '%s' already exists", name),
				map[string]any{"status": "exists", "model": name})
			return
		}
		errors.FatalError(err, globals.JSON)
	}

	printStatus(globals, fmt.Sprintf("Model '%s' created (training in background)", name),
		map[string]any{"status": "created", "model": name})
	if !globals.Quiet {
		ui.Infof("Check training progress with: kleos ai describe-model %s", name)
	}
}

func runAIListModels(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("ai list-models", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos ai list-models

Description:
  List deployed models with their training status.

Examples:
  kleos ai list-models
  kleos ai list-models --json

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	execAndRender(context.Background(), newClient(cfg), logger, sqlgen.CompileShowModels(), globals)
}

func runAIDescribeModel(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("ai describe-model", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos ai describe-model <name>

Description:
  Show a model's status, engine, and training details. A model in 'error'
  status includes the failure reason.

Examples:
  kleos ai describe-model hn_summarizer

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("model name"), globals.JSON)
	}
	name := fs.Arg(0)

	sql, err := sqlgen.CompileDescribeModel(name)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	result, err := newClient(cfg).Exec(context.Background(), sql)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if !globals.JSON {
		surfaceModelStatus(result)
	}
	output.Print(os.Stdout, result, globals.JSON)
}

// surfaceModelStatus prints the model status line before the detail table,
// including the error text when training failed.
func surfaceModelStatus(result *mindsdb.Result) {
	statusIdx, errorIdx := -1, -1
	for i, col := range result.Columns {
		switch strings.ToLower(col) {
		case "status":
			statusIdx = i
		case "error":
			errorIdx = i
		}
	}
	if statusIdx < 0 || result.Empty() {
		return
	}
	status := output.FormatCell(result.Rows[0][statusIdx])
	switch strings.ToLower(status) {
	case "complete":
		ui.Successf("Status: %s", status)
	case "error":
		ui.Warningf("Status: %s", status)
		if errorIdx >= 0 {
			if detail := output.FormatCell(result.Rows[0][errorIdx]); detail != "" && detail != "<null>" {
				ui.Warningf("Error: %s", detail)
			}
		}
	default:
		ui.Infof("Status: %s", status)
	}
}

func runAIDropModel(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("ai drop-model", flag.ExitOnError)
	yes := fs.BoolP("yes", "y", false, "Skip the confirmation prompt")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos ai drop-model [options] <name>

Description:
  Delete a model. Prompts for confirmation unless --yes is given.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos ai drop-model hn_summarizer
  kleos ai drop-model hn_summarizer --yes

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("model name"), globals.JSON)
	}
	name := fs.Arg(0)

	if !*yes && !confirm(fmt.Sprintf("Drop model '%s'?", name)) {
		ui.Info("Aborted")
		return
	}

	sql, err := sqlgen.CompileDropModel(name)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	printStatus(globals, fmt.Sprintf("Model '%s' dropped", name),
		map[string]any{"status": "dropped", "model": name})
}

// confirm prompts on stderr and reads a y/N answer from stdin.
func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func runAIRefreshModel(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("ai refresh-model", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos ai refresh-model <name>

Description:
  Retrain a model on the current contents of its training query.

Examples:
  kleos ai refresh-model hn_summarizer

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("model name"), globals.JSON)
	}
	name := fs.Arg(0)

	sql, err := sqlgen.CompileRetrainModel(name)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	printStatus(globals, fmt.Sprintf("Model '%s' retraining", name),
		map[string]any{"status": "retraining", "model": name})
}

func runAIQuery(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("ai query", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos ai query <sql>

Description:
  Run a raw SQL statement against the MindsDB server. The statement is sent
  as-is; use this for anything the structured commands do not cover.

Examples:
  kleos ai query "SELECT summary FROM hn_summarizer WHERE title = 'Show HN: Kleos'"
  kleos ai query "SELECT * FROM information_schema.models" --json

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"SQL argument required",
			"No SQL statement provided",
			`Provide a statement: kleos ai query "SHOW MODELS"`,
		), globals.JSON)
	}

	execAndRender(context.Background(), newClient(cfg), logger, fs.Arg(0), globals)
}
