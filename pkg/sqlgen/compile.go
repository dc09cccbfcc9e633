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

package sqlgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/kraklabs/kleos/internal/errors"
)

// Timestamp layouts accepted for job START/END clauses.
var jobTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

// modelObjectJSON renders the {"provider": ..., "model_name": ...} object
// used inside CREATE KNOWLEDGE_BASE. The object syntax is JSON-style with
// double quotes; this matches what the platform parses in USING clauses.
func modelObjectJSON(m ModelObject) string {
	parts := []string{
		fmt.Sprintf("%q: %q", "provider", m.Provider),
		fmt.Sprintf("%q: %q", "model_name", m.ModelName),
	}
	if m.BaseURL != "" {
		parts = append(parts, fmt.Sprintf("%q: %q", "base_url", m.BaseURL))
	}
	if m.APIKey != "" {
		parts = append(parts, fmt.Sprintf("%q: %q", "api_key", m.APIKey))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// CompileCreateKB renders a CREATE KNOWLEDGE_BASE statement.
func CompileCreateKB(req CreateKBRequest) (string, error) {
	if err := ValidateIdentifier("knowledge base name", req.Name); err != nil {
		return "", err
	}
	if req.Embedding.Provider == "" {
		return "", errors.NewMissingFieldError("embedding provider")
	}
	if req.Embedding.ModelName == "" {
		return "", errors.NewMissingFieldError("embedding model")
	}
	for _, col := range req.ContentColumns {
		if err := ValidateIdentifier("content column", col); err != nil {
			return "", err
		}
	}
	for _, col := range req.MetadataColumns {
		if err := ValidateIdentifier("metadata column", col); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE KNOWLEDGE_BASE %s USING embedding_model = %s",
		req.Name, modelObjectJSON(req.Embedding))
	if req.Reranking != nil {
		fmt.Fprintf(&b, ", reranking_model = %s", modelObjectJSON(*req.Reranking))
	}
	if len(req.ContentColumns) > 0 {
		fmt.Fprintf(&b, ", content_columns = %s", quoteStringArray(req.ContentColumns))
	}
	if len(req.MetadataColumns) > 0 {
		fmt.Fprintf(&b, ", metadata_columns = %s", quoteStringArray(req.MetadataColumns))
	}
	if req.IDColumn != "" {
		if err := ValidateIdentifier("id column", req.IDColumn); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, ", id_column = %s", QuoteLiteral(req.IDColumn))
	}
	b.WriteString(";")
	return b.String(), nil
}

// contentExpr renders the content projection: a single column as-is,
// multiple columns joined with CONCAT and a space separator.
func contentExpr(columns []string) string {
	if len(columns) == 1 {
		return columns[0]
	}
	return "CONCAT(" + strings.Join(columns, ", ' ', ") + ")"
}

// CompileIngest renders an INSERT INTO ... SELECT ingestion statement.
//
// Metadata is packaged as discrete aliased columns, one per destination
// key, in declaration order. The id projection is skipped when a metadata
// key already claims the "id" alias.
func CompileIngest(req IngestRequest) (string, error) {
	if err := ValidateIdentifier("knowledge base name", req.KB); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("datasource", req.Datasource); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("source table", req.Table); err != nil {
		return "", err
	}
	if len(req.ContentColumns) == 0 {
		return "", errors.NewMissingFieldError("content columns")
	}
	for _, col := range req.ContentColumns {
		if err := ValidateIdentifier("content column", col); err != nil {
			return "", err
		}
	}

	projections := []string{contentExpr(req.ContentColumns) + " AS content"}
	idClaimed := false
	for _, mc := range req.Metadata {
		if err := ValidateIdentifier("metadata key", mc.Key); err != nil {
			return "", err
		}
		if err := ValidateIdentifier("metadata source column", mc.Source); err != nil {
			return "", err
		}
		projections = append(projections, fmt.Sprintf("%s AS %s", mc.Source, mc.Key))
		if mc.Key == "id" {
			idClaimed = true
		}
	}
	if req.IDColumn != "" && !idClaimed {
		if err := ValidateIdentifier("id column", req.IDColumn); err != nil {
			return "", err
		}
		projections = append(projections, fmt.Sprintf("%s AS id", req.IDColumn))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s SELECT %s FROM %s.%s",
		req.KB, strings.Join(projections, ", "), req.Datasource, req.Table)
	if req.OrderBy != "" {
		if !orderByPattern.MatchString(req.OrderBy) {
			return "", errors.NewInvalidIdentifierError("order-by clause", req.OrderBy)
		}
		fmt.Fprintf(&b, " ORDER BY %s", req.OrderBy)
	}
	if req.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", req.Limit)
	}
	b.WriteString(";")
	return b.String(), nil
}

// CompileQuery renders a semantic-search SELECT with optional metadata
// filters and relevance threshold.
func CompileQuery(req QueryRequest) (string, error) {
	if err := ValidateIdentifier("knowledge base name", req.KB); err != nil {
		return "", err
	}
	if req.Text == "" {
		return "", errors.NewMissingFieldError("query text")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s WHERE content LIKE %s", req.KB, QuoteLiteral(req.Text))
	if len(req.Filter) > 0 {
		clause, err := compileFilter(req.Filter)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " AND %s", clause)
	}
	if req.Relevance > 0 {
		fmt.Fprintf(&b, " AND relevance >= %s", QuoteScalar(req.Relevance))
	}
	if req.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", req.Limit)
	}
	b.WriteString(";")
	return b.String(), nil
}

// CompileCreateIndex renders the fixed-shape index statement.
func CompileCreateIndex(kb string) (string, error) {
	if err := ValidateIdentifier("knowledge base name", kb); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE INDEX ON KNOWLEDGE_BASE %s;", kb), nil
}

// CompileShowDatabases lists all datasources.
func CompileShowDatabases() string { return "SHOW DATABASES;" }

// agentReservedKeys are USING options owned by named flags. Pass-through
// parameters never override them; collisions are dropped by the caller and
// skipped again here so the compiler stays safe on raw requests.
var agentReservedKeys = map[string]bool{
	"model":                   true,
	"google_api_key":          true,
	"include_knowledge_bases": true,
	"include_tables":          true,
	"prompt_template":         true,
}

// CompileCreateAgent renders a CREATE AGENT statement.
func CompileCreateAgent(req CreateAgentRequest) (string, error) {
	if err := ValidateIdentifier("agent name", req.Name); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("knowledge base name", req.KB); err != nil {
		return "", err
	}
	if req.Model == "" {
		return "", errors.NewMissingFieldError("model")
	}
	for _, tbl := range req.IncludeTables {
		if err := ValidateQualified("include table", tbl); err != nil {
			return "", err
		}
	}

	clauses := []string{
		fmt.Sprintf("model = %s", QuoteLiteral(req.Model)),
	}
	if req.GoogleAPIKey != "" {
		clauses = append(clauses, fmt.Sprintf("google_api_key = %s", QuoteLiteral(req.GoogleAPIKey)))
	}
	clauses = append(clauses, fmt.Sprintf("include_knowledge_bases = %s", quoteStringArray([]string{req.KB})))
	if len(req.IncludeTables) > 0 {
		clauses = append(clauses, fmt.Sprintf("include_tables = %s", quoteStringArray(req.IncludeTables)))
	}
	if req.PromptTemplate != "" {
		clauses = append(clauses, fmt.Sprintf("prompt_template = %s", QuoteLiteral(req.PromptTemplate)))
	}
	for _, p := range req.Params {
		if agentReservedKeys[strings.ToLower(p.Key)] {
			continue
		}
		if err := ValidateIdentifier("agent parameter", p.Key); err != nil {
			return "", err
		}
		clauses = append(clauses, fmt.Sprintf("%s = %s", p.Key, paramValue(p.Value)))
	}

	return fmt.Sprintf("CREATE AGENT %s USING %s;", req.Name, strings.Join(clauses, ", ")), nil
}

// CompileAgentQuery asks an agent a question.
func CompileAgentQuery(req AgentQueryRequest) (string, error) {
	if err := ValidateIdentifier("agent name", req.Agent); err != nil {
		return "", err
	}
	if req.Question == "" {
		return "", errors.NewMissingFieldError("question")
	}
	return fmt.Sprintf("SELECT answer FROM %s WHERE question = %s;",
		req.Agent, QuoteLiteral(req.Question)), nil
}

// CompileEvaluate renders the EVALUATE KNOWLEDGE_BASE statement sequence:
// an optional generate_data statement followed by the evaluation proper.
// With NoEvaluate set only the generate statement is returned. Statements
// are executed strictly in order by the dispatcher.
func CompileEvaluate(req EvaluateRequest) ([]string, error) {
	if err := ValidateIdentifier("knowledge base name", req.KB); err != nil {
		return nil, err
	}
	if err := ValidateQualified("test table", req.TestTable); err != nil {
		return nil, err
	}
	if req.NoEvaluate && !req.Generate {
		return nil, errors.NewInputError(
			"Nothing to do",
			"--no-evaluate without --generate leaves no statement to run",
			"Drop --no-evaluate or add --generate",
		)
	}

	var stmts []string
	if req.Generate {
		if req.FromSQL == "" {
			return nil, errors.NewMissingFieldError("from-sql")
		}
		count := req.Count
		if count <= 0 {
			count = defaultEvaluateCount
		}
		stmts = append(stmts, fmt.Sprintf(
			"EVALUATE KNOWLEDGE_BASE %s USING test_table = %s, generate_data = {'from_sql': %s, 'count': %d}, evaluate = false;",
			req.KB, req.TestTable, QuoteLiteral(req.FromSQL), count))
	}
	if !req.NoEvaluate {
		version := req.Version
		if version == "" {
			version = "doc_id"
		}
		clause := fmt.Sprintf("EVALUATE KNOWLEDGE_BASE %s USING test_table = %s, version = %s",
			req.KB, req.TestTable, QuoteLiteral(version))
		if req.LLMProvider != "" || req.LLMModel != "" {
			var parts []string
			if req.LLMProvider != "" {
				parts = append(parts, fmt.Sprintf("'provider': %s", QuoteLiteral(req.LLMProvider)))
			}
			if req.LLMModel != "" {
				parts = append(parts, fmt.Sprintf("'model_name': %s", QuoteLiteral(req.LLMModel)))
			}
			clause += fmt.Sprintf(", llm = {%s}", strings.Join(parts, ", "))
		}
		stmts = append(stmts, clause+";")
	}
	return stmts, nil
}

// defaultEvaluateCount is the generated test-case count when --count is
// omitted.
const defaultEvaluateCount = 20

// CompileCreateModel renders CREATE MODEL ... FROM (...) PREDICT ... USING.
func CompileCreateModel(req CreateModelRequest) (string, error) {
	if err := ValidateIdentifier("model name", req.Name); err != nil {
		return "", err
	}
	if req.SelectDataQuery == "" {
		return "", errors.NewMissingFieldError("select-data-query")
	}
	if err := ValidateIdentifier("predict column", req.PredictColumn); err != nil {
		return "", err
	}
	if req.Engine == "" {
		return "", errors.NewMissingFieldError("engine")
	}

	clauses := []string{fmt.Sprintf("engine = %s", QuoteLiteral(req.Engine))}
	if req.PromptTemplate != "" {
		clauses = append(clauses, fmt.Sprintf("prompt_template = %s", QuoteLiteral(req.PromptTemplate)))
	}
	for _, p := range req.Params {
		if err := ValidateIdentifier("model parameter", p.Key); err != nil {
			return "", err
		}
		clauses = append(clauses, fmt.Sprintf("%s = %s", p.Key, paramValue(p.Value)))
	}

	return fmt.Sprintf("CREATE MODEL %s FROM (%s) PREDICT %s USING %s;",
		req.Name, req.SelectDataQuery, req.PredictColumn, strings.Join(clauses, ", ")), nil
}

// CompileShowModels lists models.
func CompileShowModels() string { return "SHOW MODELS;" }

// CompileDescribeModel renders the model description statement.
func CompileDescribeModel(name string) (string, error) {
	if err := ValidateIdentifier("model name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("DESCRIBE MODEL %s;", name), nil
}

// CompileDropModel renders the model drop statement.
func CompileDropModel(name string) (string, error) {
	if err := ValidateIdentifier("model name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("DROP MODEL %s;", name), nil
}

// CompileRetrainModel renders the retrain statement used by refresh-model.
func CompileRetrainModel(name string) (string, error) {
	if err := ValidateIdentifier("model name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("RETRAIN %s;", name), nil
}

// CompileCreateJob renders a CREATE JOB statement. Statements are emitted
// verbatim inside the parenthesized body, semicolon-joined in the order
// given.
func CompileCreateJob(req JobRequest) (string, error) {
	if err := ValidateIdentifier("job name", req.Name); err != nil {
		return "", err
	}
	if len(req.Statements) == 0 {
		return "", errors.NewMissingFieldError("job statements")
	}
	for _, stmt := range req.Statements {
		if strings.TrimSpace(stmt) == "" {
			return "", errors.NewMissingFieldError("job statements")
		}
	}

	body := make([]string, len(req.Statements))
	for i, stmt := range req.Statements {
		body[i] = strings.TrimSuffix(strings.TrimSpace(stmt), ";")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE JOB %s (%s)", req.Name, strings.Join(body, "; "))
	if req.Schedule != "" {
		if !schedulePattern.MatchString(req.Schedule) {
			return "", errors.NewInvalidIdentifierError("schedule expression", req.Schedule)
		}
		fmt.Fprintf(&b, " SCHEDULE %s", req.Schedule)
	}
	for _, ts := range []struct {
		field, keyword, value string
	}{
		{"start", "START", req.Start},
		{"end", "END", req.End},
	} {
		if ts.value == "" {
			continue
		}
		if !validJobTime(ts.value) {
			return "", errors.NewInputError(
				fmt.Sprintf("Invalid %s timestamp", ts.field),
				fmt.Sprintf("%q matches neither '2006-01-02 15:04:05' nor '2006-01-02'", ts.value),
				"Use a date like 2025-06-01 or a full timestamp like 2025-06-01 08:00:00",
			)
		}
		fmt.Fprintf(&b, " %s %s", ts.keyword, QuoteLiteral(ts.value))
	}
	if req.If != "" {
		fmt.Fprintf(&b, " IF (%s)", strings.TrimSuffix(strings.TrimSpace(req.If), ";"))
	}
	b.WriteString(";")
	return b.String(), nil
}

func validJobTime(value string) bool {
	for _, layout := range jobTimeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// CompileLatestIngest builds the recurring-ingest statement used by
// job create-hn-ingest: a LATEST insert from a source table into a
// knowledge base with the table kind's default column pairing.
func CompileLatestIngest(kb, datasource, table string) (string, error) {
	if err := ValidateIdentifier("knowledge base name", kb); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("datasource", datasource); err != nil {
		return "", err
	}
	if err := ValidateIdentifier("source table", table); err != nil {
		return "", err
	}
	insertCols, selectCols := DefaultJobColumns(table)
	return fmt.Sprintf("INSERT INTO %s %s SELECT %s FROM %s.%s LATEST",
		kb, insertCols, selectCols, datasource, table), nil
}

// CompileShowJobs lists jobs.
func CompileShowJobs() string { return "SHOW JOBS;" }

// CompileJobStatus renders the per-job status query.
func CompileJobStatus(name string) (string, error) {
	if err := ValidateIdentifier("job name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT * FROM jobs WHERE name = %s;", QuoteLiteral(name)), nil
}

// CompileJobHistory renders the full run-history query.
func CompileJobHistory(name string) (string, error) {
	if err := ValidateIdentifier("job name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT * FROM log.jobs_history WHERE name = %s;", QuoteLiteral(name)), nil
}

// CompileJobLogs renders the run-timeline projection from the history log.
func CompileJobLogs(name string) (string, error) {
	if err := ValidateIdentifier("job name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT start_at, end_at, error FROM log.jobs_history WHERE name = %s;",
		QuoteLiteral(name)), nil
}

// CompileDropJob renders the job drop statement.
func CompileDropJob(name string) (string, error) {
	if err := ValidateIdentifier("job name", name); err != nil {
		return "", err
	}
	return fmt.Sprintf("DROP JOB %s;", name), nil
}

// CompileCreateDatabase renders the datasource bootstrap statement.
func CompileCreateDatabase(name, engine string) (string, error) {
	if err := ValidateIdentifier("datasource name", name); err != nil {
		return "", err
	}
	if engine == "" {
		return "", errors.NewMissingFieldError("engine")
	}
	return fmt.Sprintf("CREATE DATABASE %s WITH ENGINE = %s;", name, QuoteLiteral(engine)), nil
}
