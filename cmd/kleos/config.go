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
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/kleos/internal/errors"
)

const (
	defaultConfigDir  = ".kleos"
	defaultConfigFile = "config.yaml"
)

// Config represents the ~/.kleos/config.yaml configuration file.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Ollama OllamaConfig `yaml:"ollama"`
	Google GoogleConfig `yaml:"google,omitempty"`
}

// ServerConfig contains MindsDB server connection settings.
type ServerConfig struct {
	BaseURL  string `yaml:"base_url"`
	User     string `yaml:"user,omitempty"`     // HTTP basic auth (optional for local servers)
	Password string `yaml:"password,omitempty"` // HTTP basic auth (optional for local servers)
}

// OllamaConfig contains local embedding/reranking model settings.
type OllamaConfig struct {
	BaseURL        string `yaml:"base_url"`
	EmbeddingModel string `yaml:"embedding_model"`
	RerankingModel string `yaml:"reranking_model,omitempty"`
}

// GoogleConfig contains Google model settings used by agents.
type GoogleConfig struct {
	Model  string `yaml:"model,omitempty"`
	APIKey string `yaml:"api_key,omitempty"`
}

// DefaultConfig returns a config with sensible defaults for a local MindsDB
// instance. Environment variables can override these defaults after the
// config is loaded.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:47334",
		},
		Ollama: OllamaConfig{
			BaseURL:        "http://127.0.0.1:11434",
			EmbeddingModel: "nomic-embed-text",
		},
		Google: GoogleConfig{
			Model: "gemini-2.0-flash",
		},
	}
}

// LoadConfig loads configuration from the specified path or finds it
// automatically.
//
// If configPath is empty, KLEOS_CONFIG_PATH is consulted, then
// ~/.kleos/config.yaml. A missing config file is not an error — defaults
// apply and environment variables still override. An explicitly requested
// path that does not exist is an error.
func LoadConfig(configPath string) (*Config, error) {
	explicit := configPath != ""
	if configPath == "" {
		configPath = os.Getenv("KLEOS_CONFIG_PATH")
		explicit = configPath != ""
	}
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, defaultConfigDir, defaultConfigFile)
		}
	}

	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath) //nolint:gosec // G304: Path comes from user config or discovery
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.NewConfigError(
					"Invalid configuration format",
					"YAML parsing failed - the config file contains syntax errors",
					fmt.Sprintf("Edit %s to fix syntax errors, or delete it to use defaults", configPath),
					err,
				)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file: defaults plus environment overrides
		default:
			return nil, errors.NewConfigError(
				"Cannot read configuration file",
				fmt.Sprintf("Failed to read %s", configPath),
				"Check file permissions and ensure the file exists",
				err,
			)
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Server.BaseURL == "" {
		return nil, errors.NewConfigError(
			"Missing server URL",
			"No MindsDB server URL is configured",
			"Set KLEOS_HOST or add server.base_url to ~/.kleos/config.yaml",
			nil,
		)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables take precedence over file-based
// configuration.
//
// Supported environment variables:
//   - KLEOS_HOST: Override MindsDB server URL
//   - KLEOS_USER / KLEOS_PASSWORD: HTTP basic auth credentials
//   - OLLAMA_BASE_URL: Override Ollama base URL
//   - OLLAMA_EMBEDDING_MODEL: Override embedding model
//   - OLLAMA_RERANKING_MODEL: Override reranking model
//   - GOOGLE_MODEL / GOOGLE_API_KEY: Google model settings for agents
func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("KLEOS_HOST"); host != "" {
		c.Server.BaseURL = host
	}
	if user := os.Getenv("KLEOS_USER"); user != "" {
		c.Server.User = user
	}
	if pass := os.Getenv("KLEOS_PASSWORD"); pass != "" {
		c.Server.Password = pass
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		c.Ollama.BaseURL = url
	}
	if model := os.Getenv("OLLAMA_EMBEDDING_MODEL"); model != "" {
		c.Ollama.EmbeddingModel = model
	}
	if model := os.Getenv("OLLAMA_RERANKING_MODEL"); model != "" {
		c.Ollama.RerankingModel = model
	}
	if model := os.Getenv("GOOGLE_MODEL"); model != "" {
		c.Google.Model = model
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Google.APIKey = key
	}
}

// getEnv retrieves an environment variable or returns a fallback value if
// not set.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
