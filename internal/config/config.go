package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Document  DocumentConfig  `yaml:"document"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Store     StoreConfig     `yaml:"store"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Prompt    PromptConfig    `yaml:"prompt"`
	LLM       LLMConfig       `yaml:"llm"`
	Shell     ShellConfig     `yaml:"shell"`
	Web       WebConfig       `yaml:"web"`
	Log       LogConfig       `yaml:"log"`
}

type DocumentConfig struct {
	Path string `yaml:"path"`
}

type ChunkerConfig struct {
	Strategy     string `yaml:"strategy"`
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
}

// EmbedderConfig must stay identical between the run that builds the store
// and every run that queries it.
type EmbedderConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	BatchSize int    `yaml:"batch_size"`
	Dimension int    `yaml:"dimension"`
}

type StoreConfig struct {
	Backend       string         `yaml:"backend"`
	Path          string         `yaml:"path"`
	Collection    string         `yaml:"collection"`
	Compress      bool           `yaml:"compress"`
	EncryptionKey string         `yaml:"encryption_key"`
	Database      DatabaseConfig `yaml:"database"`
}

type DatabaseConfig struct {
	URL   string `yaml:"url"`
	Debug bool   `yaml:"debug"`
}

type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

type PromptConfig struct {
	Template string `yaml:"template"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ShellConfig struct {
	QuitWords []string `yaml:"quit_words"`
	Separator string   `yaml:"separator"`
}

type WebConfig struct {
	Addr  string `yaml:"addr"`
	Title string `yaml:"title"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

const (
	defaultDocumentPath = "data/document.pdf"
	defaultStorePath    = "./chromemdb"
	defaultCollection   = "pdf_chunks"
	defaultChunkSize    = 800
	defaultChunkOverlap = 150
	defaultTopK         = 10
	defaultTemperature  = 0.3
	defaultLLMModel     = "gemini-2.5-flash"
)

// LoadConfig reads the YAML file at path. A missing file yields the defaults,
// so the binary runs without any configuration next to it.
func LoadConfig(path string) (*Config, error) {
	cfg := newConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	mergeWithEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := newConfig()
	applyDefaults(&cfg)
	return &cfg
}

// newConfig presets the fields where zero is a valid setting, so yaml only
// overrides them when the key is present.
func newConfig() Config {
	var cfg Config
	cfg.Chunker.ChunkOverlap = defaultChunkOverlap
	cfg.LLM.Temperature = defaultTemperature
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Document.Path == "" {
		cfg.Document.Path = defaultDocumentPath
	}

	if cfg.Chunker.Strategy == "" {
		cfg.Chunker.Strategy = "window"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = defaultChunkSize
	}

	if cfg.Embedder.Provider == "" {
		cfg.Embedder.Provider = "huggingface"
	}
	if cfg.Embedder.Model == "" {
		switch cfg.Embedder.Provider {
		case "huggingface":
			cfg.Embedder.Model = "sentence-transformers/all-mpnet-base-v2"
		case "ollama":
			cfg.Embedder.Model = "nomic-embed-text"
		case "openai":
			cfg.Embedder.Model = "text-embedding-3-small"
		case "googleai":
			cfg.Embedder.Model = "text-embedding-004"
		case "hash":
			cfg.Embedder.Model = "fnv-hash"
		}
	}
	if cfg.Embedder.APIKeyEnv == "" {
		switch cfg.Embedder.Provider {
		case "huggingface":
			cfg.Embedder.APIKeyEnv = "HUGGINGFACEHUB_API_TOKEN"
		case "openai":
			cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
		case "googleai":
			cfg.Embedder.APIKeyEnv = "GOOGLE_API_KEY"
		}
	}
	if cfg.Embedder.BaseURL == "" && cfg.Embedder.Provider == "ollama" {
		cfg.Embedder.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Embedder.Dimension == 0 && cfg.Embedder.Provider == "hash" {
		cfg.Embedder.Dimension = 384
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "chromem"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath
	}
	if cfg.Store.Collection == "" {
		cfg.Store.Collection = defaultCollection
	}

	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = defaultTopK
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "googleai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel
	}
	if cfg.LLM.APIKeyEnv == "" {
		switch cfg.LLM.Provider {
		case "googleai":
			cfg.LLM.APIKeyEnv = "GOOGLE_API_KEY"
		case "openai":
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		}
	}
	if cfg.LLM.BaseURL == "" && cfg.LLM.Provider == "ollama" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}

	if len(cfg.Shell.QuitWords) == 0 {
		cfg.Shell.QuitWords = []string{"exit", "quit", "q"}
	}
	if cfg.Shell.Separator == "" {
		cfg.Shell.Separator = "--------------------------------------------------"
	}

	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8501"
	}
	if cfg.Web.Title == "" {
		cfg.Web.Title = "PDF Chat Assistant"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

func mergeWithEnv(cfg *Config) {
	if path := os.Getenv("RAG_DOCUMENT_PATH"); path != "" {
		cfg.Document.Path = path
	}
	if path := os.Getenv("RAG_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if model := os.Getenv("RAG_LLM_MODEL"); model != "" {
		cfg.LLM.Model = model
	}
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		if cfg.LLM.Provider == "ollama" {
			cfg.LLM.BaseURL = baseURL
		}
		if cfg.Embedder.Provider == "ollama" {
			cfg.Embedder.BaseURL = baseURL
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Store.Database.URL = dbURL
	}
}

// APIKey returns the credential named by envName, or "" when unset.
func APIKey(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}
