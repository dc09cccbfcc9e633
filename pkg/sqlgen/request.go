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

// Package sqlgen normalizes CLI input into typed request structs and
// compiles them into dialect-correct SQL text for the MindsDB platform.
//
// The package is pure: no function here performs I/O or reads ambient
// state. Compiling the same request twice yields byte-identical SQL, which
// is why every mapping-shaped input (metadata maps, filters, USING
// parameters) is represented as an ordered slice rather than a Go map.
package sqlgen

// ModelObject configures an embedding or reranking model in a
// CREATE KNOWLEDGE_BASE statement.
type ModelObject struct {
	Provider  string
	ModelName string
	BaseURL   string // optional; trailing slash stripped by the normalizer
	APIKey    string // optional
}

// MetadataColumn maps a destination metadata key to its source column.
// Declaration order is preserved through to the emitted projection.
type MetadataColumn struct {
	Key    string
	Source string
}

// Param is one key/value USING parameter. Order is preserved and duplicate
// keys are legal; later-wins semantics are the platform's business.
type Param struct {
	Key   string
	Value string
}

// CreateKBRequest describes a CREATE KNOWLEDGE_BASE statement.
type CreateKBRequest struct {
	Name            string
	Embedding       ModelObject
	Reranking       *ModelObject // nil when no reranking model was requested
	ContentColumns  []string
	MetadataColumns []string
	IDColumn        string
}

// IngestRequest describes an INSERT INTO ... SELECT ingestion from a
// datasource table into a knowledge base.
type IngestRequest struct {
	KB             string
	Datasource     string
	Table          string
	ContentColumns []string
	Metadata       []MetadataColumn
	IDColumn       string
	OrderBy        string // "column [ASC|DESC]", may be empty
	Limit          int
}

// QueryRequest describes a semantic-search SELECT against a knowledge base.
type QueryRequest struct {
	KB        string
	Text      string
	Filter    Filter
	Relevance float64 // minimum relevance threshold; 0 means unset
	Limit     int
}

// CreateAgentRequest describes a CREATE AGENT statement.
type CreateAgentRequest struct {
	Name           string
	KB             string
	Model          string
	GoogleAPIKey   string
	IncludeTables  []string // datasource.table references
	PromptTemplate string
	Params         []Param // pass-through; named options above win on collision
}

// AgentQueryRequest asks a deployed agent a natural-language question.
type AgentQueryRequest struct {
	Agent    string
	Question string
}

// EvaluateRequest describes an EVALUATE KNOWLEDGE_BASE run, optionally
// preceded by a test-data generation statement.
type EvaluateRequest struct {
	KB          string
	TestTable   string // datasource.table holding (or receiving) test data
	Version     string // doc_id or llm_relevancy
	Generate    bool   // emit the generate_data statement first
	FromSQL     string // source query for generated test data
	Count       int    // generated test case count
	NoEvaluate  bool   // emit only the generate statement
	LLMProvider string
	LLMModel    string
}

// CreateModelRequest describes a CREATE MODEL ... FROM (...) PREDICT
// statement.
type CreateModelRequest struct {
	Name            string
	SelectDataQuery string
	PredictColumn   string
	Engine          string
	PromptTemplate  string
	Params          []Param
}

// JobRequest describes a CREATE JOB statement.
type JobRequest struct {
	Name       string
	Statements []string // emitted verbatim, semicolon-joined, order preserved
	Schedule   string   // e.g. "EVERY 1 day", may be empty
	Start      string   // "2006-01-02" or "2006-01-02 15:04:05", may be empty
	End        string
	If         string // guard query, may be empty
}
