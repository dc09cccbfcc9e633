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
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/kleos/internal/errors"
	"github.com/kraklabs/kleos/internal/output"
	"github.com/kraklabs/kleos/internal/ui"
)

// ConfigOutput represents the resolved configuration for JSON output.
// Secrets (passwords, API keys) are redacted, never printed.
type ConfigOutput struct {
	Server ServerOutput `json:"server"`
	Ollama OllamaOutput `json:"ollama"`
	Google GoogleOutput `json:"google"`
}

// ServerOutput represents MindsDB server settings for JSON output.
type ServerOutput struct {
	BaseURL string `json:"base_url"`
	User    string `json:"user,omitempty"`
	// Password is intentionally omitted from output for security
}

// OllamaOutput represents Ollama settings for JSON output.
type OllamaOutput struct {
	BaseURL        string `json:"base_url"`
	EmbeddingModel string `json:"embedding_model"`
	RerankingModel string `json:"reranking_model,omitempty"`
}

// GoogleOutput represents Google model settings for JSON output.
type GoogleOutput struct {
	Model     string `json:"model,omitempty"`
	APIKeySet bool   `json:"api_key_set"`
	// APIKey is intentionally omitted from output for security
}

// runConfigCmd executes the 'config' CLI command, displaying the resolved
// configuration after file loading and environment overrides.
func runConfigCmd(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: kleos config [options]

Description:
  Display the resolved configuration: ~/.kleos/config.yaml merged with
  environment variable overrides (KLEOS_HOST, OLLAMA_BASE_URL, ...).

  Note: passwords and API keys are never displayed.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  kleos config
  kleos config --json | jq '.server.base_url'

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	result := &ConfigOutput{
		Server: ServerOutput{
			BaseURL: cfg.Server.BaseURL,
			User:    cfg.Server.User,
		},
		Ollama: OllamaOutput{
			BaseURL:        cfg.Ollama.BaseURL,
			EmbeddingModel: cfg.Ollama.EmbeddingModel,
			RerankingModel: cfg.Ollama.RerankingModel,
		},
		Google: GoogleOutput{
			Model:     cfg.Google.Model,
			APIKeySet: cfg.Google.APIKey != "",
		},
	}

	if globals.JSON {
		if err := output.JSON(os.Stdout, result); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot encode configuration as JSON",
				"JSON encoding failed unexpectedly",
				"This is a bug. Please report it",
				err,
			), globals.JSON)
		}
		return
	}

	ui.Header("Kleos Configuration")
	fmt.Println()

	ui.SubHeader("Server:")
	fmt.Printf("  Base URL:        %s\n", result.Server.BaseURL)
	if result.Server.User != "" {
		fmt.Printf("  User:            %s\n", result.Server.User)
		fmt.Printf("  Password:        %s\n", ui.DimText("(redacted)"))
	}
	fmt.Println()

	ui.SubHeader("Ollama:")
	fmt.Printf("  Base URL:        %s\n", result.Ollama.BaseURL)
	fmt.Printf("  Embedding Model: %s\n", result.Ollama.EmbeddingModel)
	if result.Ollama.RerankingModel != "" {
		fmt.Printf("  Reranking Model: %s\n", result.Ollama.RerankingModel)
	}
	fmt.Println()

	ui.SubHeader("Google:")
	if result.Google.Model != "" {
		fmt.Printf("  Model:           %s\n", result.Google.Model)
	}
	if result.Google.APIKeySet {
		fmt.Printf("  API Key:         %s\n", ui.DimText("(set, redacted)"))
	} else {
		fmt.Printf("  API Key:         %s\n", ui.DimText("(not set)"))
	}
}
