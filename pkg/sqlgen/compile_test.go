// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/kleos/internal/errors"
)

func TestCompileCreateKB_Full(t *testing.T) {
	req := CreateKBRequest{
		Name: "hn_kb",
		Embedding: ModelObject{
			Provider:  "ollama",
			ModelName: "nomic-embed-text",
			BaseURL:   "http://127.0.0.1:11434",
		},
		ContentColumns:  []string{"title", "text"},
		MetadataColumns: []string{"id", "score"},
		IDColumn:        "id",
	}

	sql, err := CompileCreateKB(req)
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE KNOWLEDGE_BASE hn_kb USING embedding_model = {"provider": "ollama", "model_name": "nomic-embed-text", "base_url": "http://127.0.0.1:11434"}, content_columns = ['title', 'text'], metadata_columns = ['id', 'score'], id_column = 'id';`,
		sql)
}

func TestCompileCreateKB_Minimal(t *testing.T) {
	sql, err := CompileCreateKB(CreateKBRequest{
		Name:      "docs",
		Embedding: ModelObject{Provider: "openai", ModelName: "text-embedding-3-small", APIKey: "sk-test"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE KNOWLEDGE_BASE docs USING embedding_model = {"provider": "openai", "model_name": "text-embedding-3-small", "api_key": "sk-test"};`,
		sql)
}

func TestCompileCreateKB_Reranking(t *testing.T) {
	sql, err := CompileCreateKB(CreateKBRequest{
		Name:      "hn_kb",
		Embedding: ModelObject{Provider: "ollama", ModelName: "nomic-embed-text"},
		Reranking: &ModelObject{Provider: "ollama", ModelName: "llama3.2", BaseURL: "http://127.0.0.1:11434"},
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `reranking_model = {"provider": "ollama", "model_name": "llama3.2", "base_url": "http://127.0.0.1:11434"}`)
}

func TestCompileCreateKB_Invalid(t *testing.T) {
	_, err := CompileCreateKB(CreateKBRequest{
		Name:      "bad name",
		Embedding: ModelObject{Provider: "ollama", ModelName: "m"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidIdentifier, errors.KindOf(err))

	_, err = CompileCreateKB(CreateKBRequest{Name: "kb", Embedding: ModelObject{Provider: "ollama"}})
	require.Error(t, err)
	assert.Equal(t, errors.KindMissingField, errors.KindOf(err))
}

func TestCompileIngest_StoriesDefaults(t *testing.T) {
	content, metadata := DefaultIngestColumns("stories")
	sql, err := CompileIngest(IngestRequest{
		KB:             "hn_kb",
		Datasource:     "hackernews",
		Table:          "stories",
		ContentColumns: content,
		Metadata:       metadata,
		IDColumn:       "id",
		OrderBy:        "id DESC",
		Limit:          50,
	})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO hn_kb SELECT CONCAT(title, ' ', text) AS content, id AS id, by AS by, score AS score, time AS time, descendants AS descendants, url AS url FROM hackernews.stories ORDER BY id DESC LIMIT 50;`,
		sql)
}

func TestCompileIngest_SingleContentColumn(t *testing.T) {
	sql, err := CompileIngest(IngestRequest{
		KB:             "hn_kb",
		Datasource:     "hackernews",
		Table:          "comments",
		ContentColumns: []string{"text"},
		Metadata:       []MetadataColumn{{Key: "author", Source: "by"}},
		IDColumn:       "id",
		Limit:          10,
	})
	require.NoError(t, err)
	// One content column: no CONCAT. "id" alias free, so the id projection
	// is emitted.
	assert.Equal(t,
		`INSERT INTO hn_kb SELECT text AS content, by AS author, id AS id FROM hackernews.comments LIMIT 10;`,
		sql)
}

func TestCompileIngest_IDClaimedByMetadata(t *testing.T) {
	sql, err := CompileIngest(IngestRequest{
		KB:             "hn_kb",
		Datasource:     "hackernews",
		Table:          "stories",
		ContentColumns: []string{"title"},
		Metadata:       []MetadataColumn{{Key: "id", Source: "id"}},
		IDColumn:       "id",
	})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO hn_kb SELECT title AS content, id AS id FROM hackernews.stories;`, sql)
}

func TestCompileIngest_InvalidOrderBy(t *testing.T) {
	_, err := CompileIngest(IngestRequest{
		KB:             "hn_kb",
		Datasource:     "hackernews",
		Table:          "stories",
		ContentColumns: []string{"title"},
		OrderBy:        "id; DROP TABLE users",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidIdentifier, errors.KindOf(err))
}

func TestCompileQuery_WithFilter(t *testing.T) {
	filter, err := ParseFilter("--metadata-filter", `{"score":{"$gt":50}}`)
	require.NoError(t, err)

	sql, err := CompileQuery(QueryRequest{KB: "hn_kb", Text: "funding", Filter: filter, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM hn_kb WHERE content LIKE 'funding' AND score > 50 LIMIT 5;`, sql)
}

func TestCompileQuery_TextQuoting(t *testing.T) {
	sql, err := CompileQuery(QueryRequest{KB: "hn_kb", Text: "founder's story", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM hn_kb WHERE content LIKE 'founder''s story' LIMIT 5;`, sql)
}

func TestCompileQuery_Relevance(t *testing.T) {
	sql, err := CompileQuery(QueryRequest{KB: "hn_kb", Text: "ai", Relevance: 0.75, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM hn_kb WHERE content LIKE 'ai' AND relevance >= 0.75 LIMIT 3;`, sql)
}

func TestCompileQuery_Idempotent(t *testing.T) {
	filter, err := ParseFilter("--metadata-filter", `{"score":{"$gt":50},"by":"pg"}`)
	require.NoError(t, err)
	req := QueryRequest{KB: "hn_kb", Text: "funding", Filter: filter, Limit: 5}

	first, err := CompileQuery(req)
	require.NoError(t, err)
	second, err := CompileQuery(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileCreateAgent(t *testing.T) {
	sql, err := CompileCreateAgent(CreateAgentRequest{
		Name:           "hn_agent",
		KB:             "hn_kb",
		Model:          "gemini-2.0-flash",
		GoogleAPIKey:   "key123",
		IncludeTables:  []string{"hackernews.stories"},
		PromptTemplate: "Answer about HackerNews:",
		Params:         []Param{{Key: "temperature", Value: "0.2"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE AGENT hn_agent USING model = 'gemini-2.0-flash', google_api_key = 'key123', include_knowledge_bases = ['hn_kb'], include_tables = ['hackernews.stories'], prompt_template = 'Answer about HackerNews:', temperature = 0.2;`,
		sql)
}

func TestCompileCreateAgent_ReservedParamSkipped(t *testing.T) {
	sql, err := CompileCreateAgent(CreateAgentRequest{
		Name:  "hn_agent",
		KB:    "hn_kb",
		Model: "gemini-2.0-flash",
		Params: []Param{
			{Key: "model", Value: "evil-override"},
			{Key: "include_knowledge_bases", Value: "other_kb"},
			{Key: "verbose", Value: "true"},
		},
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "evil-override")
	assert.NotContains(t, sql, "other_kb")
	assert.Contains(t, sql, "model = 'gemini-2.0-flash'")
	assert.Contains(t, sql, "verbose = true")
}

func TestCompileAgentQuery(t *testing.T) {
	sql, err := CompileAgentQuery(AgentQueryRequest{Agent: "hn_agent", Question: "What's trending?"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT answer FROM hn_agent WHERE question = 'What''s trending?';`, sql)
}

func TestCompileEvaluate_GenerateThenEvaluate(t *testing.T) {
	stmts, err := CompileEvaluate(EvaluateRequest{
		KB:        "hn_kb",
		TestTable: "files.hn_tests",
		Version:   "doc_id",
		Generate:  true,
		FromSQL:   "SELECT * FROM hn_kb LIMIT 200",
		Count:     50,
	})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t,
		`EVALUATE KNOWLEDGE_BASE hn_kb USING test_table = files.hn_tests, generate_data = {'from_sql': 'SELECT * FROM hn_kb LIMIT 200', 'count': 50}, evaluate = false;`,
		stmts[0])
	assert.Equal(t,
		`EVALUATE KNOWLEDGE_BASE hn_kb USING test_table = files.hn_tests, version = 'doc_id';`,
		stmts[1])
}

func TestCompileEvaluate_GenerateOnly(t *testing.T) {
	stmts, err := CompileEvaluate(EvaluateRequest{
		KB:         "hn_kb",
		TestTable:  "files.hn_tests",
		Generate:   true,
		FromSQL:    "SELECT * FROM hn_kb",
		NoEvaluate: true,
	})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "evaluate = false")
	// Count falls back to the default when omitted.
	assert.Contains(t, stmts[0], "'count': 20")
}

func TestCompileEvaluate_LLMVersion(t *testing.T) {
	stmts, err := CompileEvaluate(EvaluateRequest{
		KB:          "hn_kb",
		TestTable:   "files.hn_tests",
		Version:     "llm_relevancy",
		LLMProvider: "ollama",
		LLMModel:    "llama3.2",
	})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t,
		`EVALUATE KNOWLEDGE_BASE hn_kb USING test_table = files.hn_tests, version = 'llm_relevancy', llm = {'provider': 'ollama', 'model_name': 'llama3.2'};`,
		stmts[0])
}

func TestCompileEvaluate_NoEvaluateWithoutGenerate(t *testing.T) {
	_, err := CompileEvaluate(EvaluateRequest{
		KB:         "hn_kb",
		TestTable:  "files.hn_tests",
		NoEvaluate: true,
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindInput, errors.KindOf(err))
}

func TestCompileCreateModel(t *testing.T) {
	sql, err := CompileCreateModel(CreateModelRequest{
		Name:            "hn_summarizer",
		SelectDataQuery: "SELECT title, text FROM hackernews.stories LIMIT 100",
		PredictColumn:   "summary",
		Engine:          "openai",
		PromptTemplate:  "Summarize: {{title}}",
		Params:          []Param{{Key: "max_tokens", Value: "500"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE MODEL hn_summarizer FROM (SELECT title, text FROM hackernews.stories LIMIT 100) PREDICT summary USING engine = 'openai', prompt_template = 'Summarize: {{title}}', max_tokens = 500;`,
		sql)
}

func TestCompileCreateJob(t *testing.T) {
	sql, err := CompileCreateJob(JobRequest{
		Name: "refresh_hn",
		Statements: []string{
			"INSERT INTO hn_kb SELECT title AS content, id AS id FROM hackernews.stories LATEST;",
			"RETRAIN hn_summarizer",
		},
		Schedule: "EVERY 1 day",
		Start:    "2026-09-01",
		End:      "2026-12-31 23:59:59",
		If:       "SELECT COUNT(*) FROM hackernews.stories",
	})
	require.NoError(t, err)
	assert.Equal(t,
		`CREATE JOB refresh_hn (INSERT INTO hn_kb SELECT title AS content, id AS id FROM hackernews.stories LATEST; RETRAIN hn_summarizer) SCHEDULE EVERY 1 day START '2026-09-01' END '2026-12-31 23:59:59' IF (SELECT COUNT(*) FROM hackernews.stories);`,
		sql)
}

func TestCompileCreateJob_StatementOrderPreserved(t *testing.T) {
	sql, err := CompileCreateJob(JobRequest{
		Name:       "ordered",
		Statements: []string{"SELECT 1", "SELECT 2", "SELECT 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, `CREATE JOB ordered (SELECT 1; SELECT 2; SELECT 3);`, sql)
}

func TestCompileCreateJob_BadTimestamp(t *testing.T) {
	_, err := CompileCreateJob(JobRequest{
		Name:       "j",
		Statements: []string{"SELECT 1"},
		Start:      "next tuesday",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindInput, errors.KindOf(err))
}

func TestCompileCreateJob_BadSchedule(t *testing.T) {
	_, err := CompileCreateJob(JobRequest{
		Name:       "j",
		Statements: []string{"SELECT 1"},
		Schedule:   "EVERY 1 day; DROP JOB x",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidIdentifier, errors.KindOf(err))
}

func TestCompileLatestIngest(t *testing.T) {
	sql, err := CompileLatestIngest("hn_kb", "hackernews", "stories")
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO hn_kb (content, story_id, author) SELECT title, id, by FROM hackernews.stories LATEST`,
		sql)
}

func TestCompileJobQueries(t *testing.T) {
	status, err := CompileJobStatus("refresh_hn")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM jobs WHERE name = 'refresh_hn';`, status)

	history, err := CompileJobHistory("refresh_hn")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM log.jobs_history WHERE name = 'refresh_hn';`, history)

	logs, err := CompileJobLogs("refresh_hn")
	require.NoError(t, err)
	assert.Equal(t, `SELECT start_at, end_at, error FROM log.jobs_history WHERE name = 'refresh_hn';`, logs)

	drop, err := CompileDropJob("refresh_hn")
	require.NoError(t, err)
	assert.Equal(t, `DROP JOB refresh_hn;`, drop)
}

func TestCompileModelStatements(t *testing.T) {
	describe, err := CompileDescribeModel("m")
	require.NoError(t, err)
	assert.Equal(t, `DESCRIBE MODEL m;`, describe)

	drop, err := CompileDropModel("m")
	require.NoError(t, err)
	assert.Equal(t, `DROP MODEL m;`, drop)

	retrain, err := CompileRetrainModel("m")
	require.NoError(t, err)
	assert.Equal(t, `RETRAIN m;`, retrain)
}

func TestCompileCreateDatabase(t *testing.T) {
	sql, err := CompileCreateDatabase("hackernews", "hackernews")
	require.NoError(t, err)
	assert.Equal(t, `CREATE DATABASE hackernews WITH ENGINE = 'hackernews';`, sql)

	_, err = CompileCreateDatabase("bad name", "hackernews")
	require.Error(t, err)
}
