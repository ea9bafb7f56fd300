package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"pdf-rag/internal/chunker"
	"pdf-rag/internal/config"
	"pdf-rag/internal/embedding"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
	"pdf-rag/internal/parser"
	"pdf-rag/internal/prompt"
)

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrNoText        = errors.New("document has no extractable text")

	// ErrEmbedderMismatch means the store was built with another embedder.
	ErrEmbedderMismatch = errors.New("stored vectors do not match the configured embedder, rebuild the store")
)

type RAG struct {
	cfg       *config.Config
	embedder  embeddings.Embedder
	store     VectorStore
	retriever *Retriever
	chunker   *chunker.Chunker
	template  *prompt.Template
	llm       llms.Model
}

// PrepareResult says what Prepare did with the store.
type PrepareResult struct {
	Built   bool
	Pages   int
	Chunks  int
	Entries int
}

func NewRAG(cfg *config.Config, embedder embeddings.Embedder, store VectorStore, llm llms.Model) (*RAG, error) {
	tmpl, err := prompt.New(cfg.Prompt.Template)
	if err != nil {
		return nil, err
	}
	return &RAG{
		cfg:       cfg,
		embedder:  embedder,
		store:     store,
		retriever: NewRetriever(embedder, store, cfg.Retriever.TopK),
		chunker:   chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap, cfg.Chunker.Strategy),
		template:  tmpl,
		llm:       llm,
	}, nil
}

// Prepare loads an existing store as is, or builds it from the configured
// document when it is empty or rebuild is set. The document must exist in
// both cases. A failed build leaves the store empty so the next run starts
// over.
func (r *RAG) Prepare(ctx context.Context, rebuild bool) (*PrepareResult, error) {
	if _, err := os.Stat(r.cfg.Document.Path); err != nil {
		return nil, fmt.Errorf("error loading document: %w", err)
	}

	if !rebuild {
		populated, err := r.store.Populated(ctx)
		if err != nil {
			return nil, fmt.Errorf("error checking vector store: %w", err)
		}
		if populated {
			count, err := r.store.Count(ctx)
			if err != nil {
				return nil, err
			}
			if err := r.checkEmbedder(ctx); err != nil {
				return nil, err
			}
			log.Info().Int("entries", count).Msg("Loaded existing vector store")
			return &PrepareResult{Entries: count}, nil
		}
	}

	chunks, pages, err := r.Chunks()
	if err != nil {
		return nil, err
	}

	if err := r.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("error clearing vector store: %w", err)
	}

	log.Info().Int("pages", pages).Int("chunks", len(chunks)).Msg("Embedding document")
	if err := r.index(ctx, chunks); err != nil {
		if resetErr := r.store.Reset(ctx); resetErr != nil {
			log.Error().Err(resetErr).Msg("Error cleaning up after failed build")
		}
		return nil, err
	}

	count, err := r.store.Count(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Int("entries", count).Msg("Built vector store")
	return &PrepareResult{Built: true, Pages: pages, Chunks: len(chunks), Entries: count}, nil
}

// Chunks loads and splits the configured document without touching the
// store. It returns the chunks and the number of pages with text.
func (r *RAG) Chunks() ([]models.Chunk, int, error) {
	pages, err := parser.Load(r.cfg.Document.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("error loading document: %w", err)
	}
	chunks := r.chunker.Split(pages)
	if len(chunks) == 0 {
		return nil, len(pages), fmt.Errorf("%s: %w", r.cfg.Document.Path, ErrNoText)
	}
	return chunks, len(pages), nil
}

// checkEmbedder runs one search against the loaded store so that vectors of
// a different size fail at startup instead of on the first question.
func (r *RAG) checkEmbedder(ctx context.Context) error {
	vec, err := r.embedder.EmbedQuery(ctx, "dimension check")
	if err != nil {
		return fmt.Errorf("error embedding check query: %w", err)
	}
	if _, err := r.store.Search(ctx, vec, 1); err != nil {
		return fmt.Errorf("%w: %v", ErrEmbedderMismatch, err)
	}
	return nil
}

func (r *RAG) index(ctx context.Context, chunks []models.Chunk) error {
	chunkEmbeddings, err := embedding.EmbedChunks(ctx, r.embedder, chunks)
	if err != nil {
		return fmt.Errorf("error generating embeddings: %w", err)
	}
	if err := r.store.AddDocuments(ctx, chunkEmbeddings); err != nil {
		return fmt.Errorf("error storing embeddings: %w", err)
	}
	return nil
}

// Ask answers one question from the document. A blank question is rejected
// before anything is embedded, retrieved or sent to the model.
func (r *RAG) Ask(ctx context.Context, question string) (*models.PromptResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	results, err := r.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	promptContext := prompt.FormatContext(results)
	log.Debug().Int("chunks", len(results)).Str("query", question).Msg("Retrieved context")

	text, err := r.template.Render(promptContext, question)
	if err != nil {
		return nil, err
	}

	answer, err := llmservice.Generate(ctx, r.llm, &r.cfg.LLM, text)
	if err != nil {
		return nil, err
	}

	return &models.PromptResponse{
		Query:   question,
		Context: promptContext,
		Sources: results,
		Content: answer,
	}, nil
}

func (r *RAG) Close() error {
	return r.store.Close()
}
