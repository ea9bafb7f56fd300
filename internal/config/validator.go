package config

import (
	"fmt"
	"net/url"
	"slices"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	chunkStrategies   = []string{"window", "recursive"}
	embedderProviders = []string{"huggingface", "ollama", "openai", "googleai", "hash"}
	storeBackends     = []string{"chromem", "pgvector"}
	llmProviders      = []string{"googleai", "openai", "ollama"}
)

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Document.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "document.path",
			Message: "document path is required",
		})
	}

	if !slices.Contains(chunkStrategies, c.Chunker.Strategy) {
		errors = append(errors, ValidationError{
			Field:   "chunker.strategy",
			Message: fmt.Sprintf("unknown strategy %q", c.Chunker.Strategy),
		})
	}

	if c.Chunker.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if !slices.Contains(embedderProviders, c.Embedder.Provider) {
		errors = append(errors, ValidationError{
			Field:   "embedder.provider",
			Message: fmt.Sprintf("unknown provider %q", c.Embedder.Provider),
		})
	}

	if c.Embedder.Provider == "hash" && c.Embedder.Dimension < 1 {
		errors = append(errors, ValidationError{
			Field:   "embedder.dimension",
			Message: "dimension must be positive",
		})
	}

	if !slices.Contains(storeBackends, c.Store.Backend) {
		errors = append(errors, ValidationError{
			Field:   "store.backend",
			Message: fmt.Sprintf("unknown backend %q", c.Store.Backend),
		})
	}

	if c.Store.Backend == "pgvector" {
		if c.Store.Database.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "store.database.url",
				Message: "database URL is required for the pgvector backend",
			})
		} else if _, err := url.Parse(c.Store.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.database.url",
				Message: "invalid database URL",
			})
		}
	}

	// chromem encrypts snapshots with AES-256
	if c.Store.EncryptionKey != "" && len(c.Store.EncryptionKey) != 32 {
		errors = append(errors, ValidationError{
			Field:   "store.encryption_key",
			Message: "encryption_key must be exactly 32 bytes",
		})
	}

	if c.Retriever.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retriever.top_k",
			Message: "top_k must be positive",
		})
	}

	if !slices.Contains(llmProviders, c.LLM.Provider) {
		errors = append(errors, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unknown provider %q", c.LLM.Provider),
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.timeout",
			Message: "timeout cannot be negative",
		})
	}

	for _, baseURL := range []struct{ field, value string }{
		{"embedder.base_url", c.Embedder.BaseURL},
		{"llm.base_url", c.LLM.BaseURL},
	} {
		if baseURL.value == "" {
			continue
		}
		if u, err := url.Parse(baseURL.value); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   baseURL.field,
				Message: "invalid base URL",
			})
		}
	}

	return errors
}
