package models

// Page is the text of one page of a source document. PageNumber is 1-based.
type Page struct {
	Source     string
	PageNumber int
	Content    string
}

// Chunk represents a parsed chunk with metadata
type Chunk struct {
	Source     string
	Content    string
	PageNumber int
	ChunkID    int
}

type ChunkEmbedding struct {
	ID             string
	Content        string
	Embedding      []float32
	SourceFilename string
	PageNumber     int
	ChunkID        int
}

// SearchResult is one retrieved chunk. Score is backend specific: cosine
// similarity for chromem (higher is better), L2 distance for pgvector
// (lower is better). Results are always ordered best-first.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

type PromptResponse struct {
	Query   string
	Context string
	Sources []SearchResult
	Content string
}
