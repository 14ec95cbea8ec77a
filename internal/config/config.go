// Package config loads service configuration from environment variables.
// Both pipelines refuse to start when a required variable is missing.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Store backends.
const (
	BackendAstra  = "astra"
	BackendSQLite = "sqlite"
)

type Config struct {
	Server    ServerConfig
	Astra     AstraConfig
	OpenAI    OpenAIConfig
	Retrieval RetrievalConfig
	Store     StoreConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type AstraConfig struct {
	Endpoint   string
	Token      string
	Namespace  string
	Collection string
}

type OpenAIConfig struct {
	APIKey     string
	ChatModel  string
	EmbedModel string
}

type RetrievalConfig struct {
	TopK    int
	Augment string // "inject" or "shadow"
}

type StoreConfig struct {
	Backend    string // "astra" or "sqlite"
	SQLitePath string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{Port: 3000},
		OpenAI: OpenAIConfig{
			ChatModel:  "gpt-4o-mini",
			EmbedModel: "text-embedding-3-small",
		},
		Retrieval: RetrievalConfig{TopK: 10, Augment: "inject"},
		Store:     StoreConfig{Backend: BackendAstra, SQLitePath: "pitwall.db"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads configuration from the environment and validates it.
// It fails fast, naming the first missing required variable.
func Load() (Config, error) {
	cfg := defaults()

	cfg.Server.Port = envInt("PITWALL_PORT", cfg.Server.Port)
	cfg.Log.Level = envStr("PITWALL_LOG_LEVEL", cfg.Log.Level)
	cfg.Store.Backend = envStr("PITWALL_STORE", cfg.Store.Backend)
	cfg.Store.SQLitePath = envStr("PITWALL_SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Retrieval.TopK = envInt("PITWALL_TOP_K", cfg.Retrieval.TopK)
	cfg.Retrieval.Augment = envStr("PITWALL_AUGMENT", cfg.Retrieval.Augment)

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.ChatModel = envStr("PITWALL_CHAT_MODEL", cfg.OpenAI.ChatModel)
	cfg.OpenAI.EmbedModel = envStr("PITWALL_EMBED_MODEL", cfg.OpenAI.EmbedModel)

	cfg.Astra.Endpoint = os.Getenv("ASTRA_DB_API_ENDPOINT")
	cfg.Astra.Token = os.Getenv("ASTRA_DB_APPLICATION_TOKEN")
	cfg.Astra.Namespace = os.Getenv("ASTRA_DB_NAMESPACE")
	cfg.Astra.Collection = os.Getenv("ASTRA_DB_COLLECTION")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	switch c.Store.Backend {
	case BackendAstra:
		required := []struct{ name, value string }{
			{"ASTRA_DB_API_ENDPOINT", c.Astra.Endpoint},
			{"ASTRA_DB_APPLICATION_TOKEN", c.Astra.Token},
			{"ASTRA_DB_NAMESPACE", c.Astra.Namespace},
			{"ASTRA_DB_COLLECTION", c.Astra.Collection},
		}
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("%s is not set", r.name)
			}
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("PITWALL_SQLITE_PATH is not set")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want %q or %q)", c.Store.Backend, BackendAstra, BackendSQLite)
	}

	switch c.Retrieval.Augment {
	case "inject", "shadow":
	default:
		return fmt.Errorf("unknown augment mode %q (want \"inject\" or \"shadow\")", c.Retrieval.Augment)
	}

	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
