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
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/kleos/internal/errors"
	"github.com/kraklabs/kleos/internal/output"
	"github.com/kraklabs/kleos/internal/ui"
	"github.com/kraklabs/kleos/pkg/mindsdb"
	"github.com/kraklabs/kleos/pkg/sqlgen"
)

const (
	// defaultIngestLimit caps ingestion when --limit is not given. HackerNews
	// tables are effectively unbounded, so an unlimited default would hammer
	// both the datasource and the embedding model.
	defaultIngestLimit = 100

	// defaultQueryLimit bounds semantic search results by default.
	defaultQueryLimit = 5
)

// runKB dispatches the 'kb' command group.
func runKB(args []string, configPath string, globals GlobalFlags) {
	if len(args) == 0 {
		kbUsage()
		os.Exit(1)
	}

	sub := args[0]
	subArgs := args[1:]

	switch sub {
	case "create":
		runKBCreate(subArgs, configPath, globals)
	case "ingest":
		runKBIngest(subArgs, configPath, globals)
	case "query":
		runKBQuery(subArgs, configPath, globals)
	case "index":
		runKBIndex(subArgs, configPath, globals)
	case "list-databases":
		runKBListDatabases(subArgs, configPath, globals)
	case "create-agent":
		runKBCreateAgent(subArgs, configPath, globals)
	case "query-agent":
		runKBQueryAgent(subArgs, configPath, globals)
	case "evaluate":
		runKBEvaluate(subArgs, configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown kb command: %s\n", sub)
		kbUsage()
		os.Exit(1)
	}
}

func kbUsage() {
	fmt.Fprintf(os.Stderr, `Usage: kleos kb <command> [options]

Commands:
  create <name>                  Create a Knowledge Base
  ingest <name>                  Ingest HackerNews data into a Knowledge Base
  query <name> <text>            Semantic search with optional metadata filters
  index <name>                   Build the Knowledge Base index
  list-databases                 List connected datasources
  create-agent <agent> <kb>      Deploy an agent over a Knowledge Base
  query-agent <agent> <question> Ask a deployed agent a question
  evaluate <name>                Evaluate Knowledge Base retrieval quality

Run 'kleos kb <command> --help' for command-specific options.

`)
}

// printStatus reports a non-tabular command outcome. In JSON mode a single
// object goes to stdout; otherwise a human-readable success line.
func printStatus(globals GlobalFlags, message string, payload map[string]any) {
	if globals.JSON {
		data, _ := json.Marshal(payload)
		fmt.Println(string(data))
		return
	}
	ui.Success(message)
}

func runKBCreate(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb create", flag.ExitOnError)
	embProvider := fs.String("embedding-provider", "ollama", "Embedding model provider")
	embModel := fs.String("embedding-model", "", "Embedding model name (default from config)")
	embBaseURL := fs.String("embedding-base-url", "", "Embedding provider URL (default from config for ollama)")
	embAPIKey := fs.String("embedding-api-key", "", "Embedding provider API key")
	rrProvider := fs.String("reranking-provider", "ollama", "Reranking model provider")
	rrModel := fs.String("reranking-model", "", "Reranking model name (enables reranking)")
	rrBaseURL := fs.String("reranking-base-url", "", "Reranking provider URL (default from config for ollama)")
	contentCols := fs.String("content-columns", "", "Comma-separated content columns")
	metadataCols := fs.String("metadata-columns", "", "Comma-separated metadata columns")
	idColumn := fs.String("id-column", "", "Document ID column")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb create [options] <name>

Description:
  Create a MindsDB Knowledge Base backed by a local Ollama embedding model
  by default. The Knowledge Base stores documents as embeddings and supports
  semantic search plus structured metadata filters.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Local Ollama embeddings (default)
  kleos kb create hn_kb --id-column id

  # Explicit columns and a reranking model
  kleos kb create hn_kb --content-columns title,text --metadata-columns score,by --reranking-model llama3.2

  # Remote embedding provider
  kleos kb create docs_kb --embedding-provider openai --embedding-model text-embedding-3-small --embedding-api-key $OPENAI_API_KEY

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("knowledge base name"), globals.JSON)
	}
	name := fs.Arg(0)

	req := sqlgen.CreateKBRequest{
		Name: name,
		Embedding: sqlgen.ModelObject{
			Provider:  *embProvider,
			ModelName: *embModel,
			BaseURL:   sqlgen.TrimBaseURL(*embBaseURL),
			APIKey:    *embAPIKey,
		},
		IDColumn: *idColumn,
	}
	if req.Embedding.ModelName == "" {
		req.Embedding.ModelName = cfg.Ollama.EmbeddingModel
	}
	if req.Embedding.BaseURL == "" && req.Embedding.Provider == "ollama" {
		req.Embedding.BaseURL = sqlgen.TrimBaseURL(cfg.Ollama.BaseURL)
	}

	if *rrModel != "" || cfg.Ollama.RerankingModel != "" {
		model := *rrModel
		if model == "" {
			model = cfg.Ollama.RerankingModel
		}
		rr := sqlgen.ModelObject{
			Provider:  *rrProvider,
			ModelName: model,
			BaseURL:   sqlgen.TrimBaseURL(*rrBaseURL),
		}
		if rr.BaseURL == "" && rr.Provider == "ollama" {
			rr.BaseURL = sqlgen.TrimBaseURL(cfg.Ollama.BaseURL)
		}
		req.Reranking = &rr
	}

	var err error
	if *contentCols != "" {
		req.ContentColumns, err = sqlgen.SplitColumns("--content-columns", *contentCols)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
	}
	if *metadataCols != "" {
		req.MetadataColumns, err = sqlgen.SplitColumns("--metadata-columns", *metadataCols)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
	}

	sql, err := sqlgen.CompileCreateKB(req)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	client := newClient(cfg)
	if _, err := client.Exec(context.Background(), sql); err != nil {
		if mindsdb.IsAlreadyExists(err) {
			printStatus(globals, fmt.Sprintf("Knowledge base '%s' already exists", name),
				map[string]any{"status": "exists", "knowledge_base": name})
			return
		}
		errors.FatalError(err, globals.JSON)
	}

	printStatus(globals, fmt.Sprintf("Knowledge base '%s' created", name),
		map[string]any{"status": "created", "knowledge_base": name})
	if !globals.Quiet {
		ui.Infof("Embedding model: %s/%s", req.Embedding.Provider, req.Embedding.ModelName)
		if req.Reranking != nil {
			ui.Infof("Reranking model: %s/%s", req.Reranking.Provider, req.Reranking.ModelName)
		}
	}
}

func runKBIngest(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb ingest", flag.ExitOnError)
	fromTable := fs.String("from-hackernews", "", "HackerNews table to ingest (stories, comments, ...)")
	datasource := fs.String("hn-datasource", "hackernews", "Datasource name")
	limit := fs.Int("limit", defaultIngestLimit, "Maximum rows to ingest")
	contentCols := fs.String("content-columns", "", "Comma-separated content columns (overrides auto-detection)")
	metadataMap := fs.String("metadata-map", "", `JSON object mapping metadata keys to source columns, e.g. '{"author":"by"}'`)
	idColumn := fs.String("id-column", "id", "Source column used as document ID")
	orderBy := fs.String("order-by", "id DESC", "Ingestion order (column [ASC|DESC])")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb ingest [options] <name>

Description:
  Ingest rows from a HackerNews table into a Knowledge Base. Column mappings
  are auto-detected for the 'stories' and 'comments' tables; other tables
  fall back to a minimal text/id mapping. Explicit --content-columns or
  --metadata-map replace the corresponding detected mapping entirely.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Latest 50 stories with auto-detected columns
  kleos kb ingest hn_kb --from-hackernews stories --limit 50

  # Custom content and metadata mapping
  kleos kb ingest hn_kb --from-hackernews stories --content-columns title --metadata-map '{"author":"by","points":"score"}'

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("knowledge base name"), globals.JSON)
	}
	if *fromTable == "" {
		errors.FatalError(errors.NewMissingFieldError("--from-hackernews"), globals.JSON)
	}
	name := fs.Arg(0)

	content, metadata := sqlgen.DefaultIngestColumns(*fromTable)

	var err error
	if fs.Changed("content-columns") {
		content, err = sqlgen.SplitColumns("--content-columns", *contentCols)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
	}
	if fs.Changed("metadata-map") {
		metadata, err = sqlgen.ParseMetadataMap("--metadata-map", *metadataMap)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
	}

	req := sqlgen.IngestRequest{
		KB:             name,
		Datasource:     *datasource,
		Table:          *fromTable,
		ContentColumns: content,
		Metadata:       metadata,
		IDColumn:       *idColumn,
		OrderBy:        *orderBy,
		Limit:          *limit,
	}

	sql, err := sqlgen.CompileIngest(req)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if !globals.Quiet {
		ui.Infof("Ingesting up to %d rows from %s.%s into '%s'", *limit, *datasource, *fromTable, name)
	}

	logger.Info("sql.exec", "query", sql)
	client := newClient(cfg)
	if _, err := client.Exec(context.Background(), sql); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	printStatus(globals, fmt.Sprintf("Ingested %s.%s into '%s'", *datasource, *fromTable, name),
		map[string]any{"status": "ingested", "knowledge_base": name, "table": *fromTable, "limit": *limit})
}

func runKBQuery(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb query", flag.ExitOnError)
	metadataFilter := fs.String("metadata-filter", "", `JSON filter, e.g. '{"score":{"$gt":50},"by":"pg"}'`)
	limit := fs.Int("limit", defaultQueryLimit, "Maximum results")
	relevance := fs.Float64("relevance", 0, "Minimum relevance threshold (0 = off)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb query [options] <name> <text>

Description:
  Run a semantic search against a Knowledge Base. The search text is matched
  against document content; metadata filters narrow results with structured
  comparisons ($gt, $gte, $lt, $lte, or bare values for equality).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos kb query hn_kb "AI startup funding"
  kleos kb query hn_kb "funding" --metadata-filter '{"score":{"$gt":50}}'
  kleos kb query hn_kb "rust" --metadata-filter '{"author":"pg"}' --limit 10 --json

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 2 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"Missing arguments",
			"kb query requires a knowledge base name and search text",
			`Example: kleos kb query hn_kb "AI funding"`,
		), globals.JSON)
	}
	name := fs.Arg(0)
	text := fs.Arg(1)

	var filter sqlgen.Filter
	if *metadataFilter != "" {
		var err error
		filter, err = sqlgen.ParseFilter("--metadata-filter", *metadataFilter)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
	}

	sql, err := sqlgen.CompileQuery(sqlgen.QueryRequest{
		KB:        name,
		Text:      text,
		Filter:    filter,
		Relevance: *relevance,
		Limit:     *limit,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	execAndRender(context.Background(), newClient(cfg), logger, sql, globals)
}

func runKBIndex(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb index", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb index <name>

Description:
  Build (or rebuild) the vector index for a Knowledge Base. Run after large
  ingests to speed up semantic search.

Examples:
  kleos kb index hn_kb

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("knowledge base name"), globals.JSON)
	}
	name := fs.Arg(0)

	sql, err := sqlgen.CompileCreateIndex(name)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		errors.FatalError(err, globals.JSON)
	}
	printStatus(globals, fmt.Sprintf("Index created on '%s'", name),
		map[string]any{"status": "indexed", "knowledge_base": name})
}

func runKBListDatabases(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb list-databases", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb list-databases

Description:
  List the datasources connected to the MindsDB server.

Examples:
  kleos kb list-databases
  kleos kb list-databases --json | jq '.rows[][0]'

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	execAndRender(context.Background(), newClient(cfg), logger, sqlgen.CompileShowDatabases(), globals)
}

func runKBCreateAgent(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb create-agent", flag.ExitOnError)
	model := fs.String("model", "", "LLM model name (default from config)")
	apiKey := fs.String("google-api-key", "", "Google API key (default from config or GOOGLE_API_KEY)")
	includeTables := fs.String("include-tables", "", "Comma-separated datasource.table references")
	promptTemplate := fs.String("prompt-template", "", "Agent prompt template")
	params := fs.StringArray("param", nil, "Extra USING parameter as key=value (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb create-agent [options] <agent> <kb>

Description:
  Deploy a conversational agent over a Knowledge Base. The agent answers
  natural-language questions using the Knowledge Base (and any included
  tables) as grounding context.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos kb create-agent hn_agent hn_kb
  kleos kb create-agent hn_agent hn_kb --include-tables hackernews.stories --prompt-template "Answer about HackerNews:"
  kleos kb create-agent hn_agent hn_kb --param temperature=0.2

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 2 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"Missing arguments",
			"kb create-agent requires an agent name and a knowledge base name",
			"Example: kleos kb create-agent hn_agent hn_kb",
		), globals.JSON)
	}
	agent := fs.Arg(0)
	kb := fs.Arg(1)

	req := sqlgen.CreateAgentRequest{
		Name:           agent,
		KB:             kb,
		Model:          *model,
		GoogleAPIKey:   *apiKey,
		PromptTemplate: *promptTemplate,
	}
	if req.Model == "" {
		req.Model = cfg.Google.Model
	}
	if req.GoogleAPIKey == "" {
		req.GoogleAPIKey = cfg.Google.APIKey
	}

	var err error
	if *includeTables != "" {
		req.IncludeTables, err = sqlgen.SplitColumns("--include-tables", *includeTables)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
	}
	req.Params, err = sqlgen.ParseParams("--param", *params)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	sql, err := sqlgen.CompileCreateAgent(req)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	logger.Info("sql.exec", "query", sql)
	if _, err := newClient(cfg).Exec(context.Background(), sql); err != nil {
		if mindsdb.IsAlreadyExists(err) {
			printStatus(globals, fmt.Sprintf("Agent '%s' already exists", agent),
				map[string]any{"status": "exists", "agent": agent})
			return
		}
		errors.FatalError(err, globals.JSON)
	}
	printStatus(globals, fmt.Sprintf("Agent '%s' created over '%s'", agent, kb),
		map[string]any{"status": "created", "agent": agent, "knowledge_base": kb})
}

func runKBQueryAgent(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb query-agent", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb query-agent <agent> <question>

Description:
  Ask a deployed agent a natural-language question and print its answer.

Examples:
  kleos kb query-agent hn_agent "What are people saying about Rust?"

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 2 {
		fs.Usage()
		errors.FatalError(errors.NewInputError(
			"Missing arguments",
			"kb query-agent requires an agent name and a question",
			`Example: kleos kb query-agent hn_agent "What is trending?"`,
		), globals.JSON)
	}

	sql, err := sqlgen.CompileAgentQuery(sqlgen.AgentQueryRequest{
		Agent:    fs.Arg(0),
		Question: fs.Arg(1),
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	execAndRender(context.Background(), newClient(cfg), logger, sql, globals)
}

func runKBEvaluate(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)
	logger := newLogger(globals)

	fs := flag.NewFlagSet("kb evaluate", flag.ExitOnError)
	testTable := fs.String("test-table", "", "datasource.table holding (or receiving) test data")
	version := fs.String("version", "doc_id", "Evaluation version: doc_id or llm_relevancy")
	generate := fs.Bool("generate", false, "Generate test data before evaluating")
	fromSQL := fs.String("from-sql", "", "Source query for generated test data")
	count := fs.Int("count", 20, "Generated test case count")
	noEvaluate := fs.Bool("no-evaluate", false, "Only generate test data, skip the evaluation run")
	llmProvider := fs.String("llm-provider", "", "LLM provider for llm_relevancy evaluation")
	llmModel := fs.String("llm-model", "", "LLM model for llm_relevancy evaluation")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos kb evaluate [options] <name>

Description:
  Evaluate retrieval quality of a Knowledge Base against a test table.
  With --generate, test questions are synthesized into the test table first,
  then the evaluation runs against it (unless --no-evaluate).

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Evaluate against existing test data
  kleos kb evaluate hn_kb --test-table files.hn_tests

  # Generate 50 test cases from ingested stories, then evaluate
  kleos kb evaluate hn_kb --test-table files.hn_tests --generate --from-sql "SELECT * FROM hn_kb LIMIT 200" --count 50

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fs.Usage()
		errors.FatalError(errors.NewMissingFieldError("knowledge base name"), globals.JSON)
	}
	if *testTable == "" {
		errors.FatalError(errors.NewMissingFieldError("--test-table"), globals.JSON)
	}
	name := fs.Arg(0)

	statements, err := sqlgen.CompileEvaluate(sqlgen.EvaluateRequest{
		KB:          name,
		TestTable:   *testTable,
		Version:     *version,
		Generate:    *generate,
		FromSQL:     *fromSQL,
		Count:       *count,
		NoEvaluate:  *noEvaluate,
		LLMProvider: *llmProvider,
		LLMModel:    *llmModel,
	})
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	client := newClient(cfg)
	progressCfg := NewProgressConfig(globals)
	spinner := NewSpinner(progressCfg, "Evaluating knowledge base")

	var last *mindsdb.Result
	for _, sql := range statements {
		logger.Info("sql.exec", "query", sql)
		result, err := client.Exec(context.Background(), sql)
		if err != nil {
			finishBar(spinner)
			errors.FatalError(err, globals.JSON)
		}
		last = result
	}
	finishBar(spinner)

	if last == nil || last.Empty() {
		printStatus(globals, fmt.Sprintf("Evaluation of '%s' completed", name),
			map[string]any{"status": "evaluated", "knowledge_base": name})
		return
	}
	output.Print(os.Stdout, last, globals.JSON)
}
