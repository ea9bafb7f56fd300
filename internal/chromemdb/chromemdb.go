package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/models"
)

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	embed          chromem.EmbeddingFunc
	dbPath         string
	compress       bool
	encryptionKey  string
	existed        bool
}

// NewVectorDBManager opens (or creates) the persistent database at dbPath
// and its collection. An empty dbPath keeps everything in memory.
func NewVectorDBManager(dbPath, collectionName string, compress bool, encryptionKey string, embed chromem.EmbeddingFunc) (*VectorDBManager, error) {
	var (
		db      *chromem.DB
		err     error
		existed bool
	)
	if dbPath == "" {
		db = chromem.NewDB()
	} else {
		existed, err = helper.DirExists(dbPath)
		if err != nil {
			return nil, err
		}
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:             db,
		collectionName: collectionName,
		embed:          embed,
		dbPath:         dbPath,
		compress:       compress,
		encryptionKey:  encryptionKey,
		existed:        existed,
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, m.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	m.collection = c
	return c, nil
}

// Populated reports whether the store directory was already there when it
// was opened and holds entries. Its contents are trusted as they are.
func (m *VectorDBManager) Populated(ctx context.Context) (bool, error) {
	return m.existed && m.collection.Count() > 0, nil
}

func (m *VectorDBManager) Count(ctx context.Context) (int, error) {
	return m.collection.Count(), nil
}

// AddDocuments persists the chunk embeddings as chromem documents.
func (m *VectorDBManager) AddDocuments(ctx context.Context, docs []models.ChunkEmbedding) error {
	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			var err error
			if id, err = helper.GenerateUUID(); err != nil {
				return err
			}
		}
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:        id,
			Content:   doc.Content,
			Metadata:  CreateMetadata(doc),
			Embedding: doc.Embedding,
		})
	}

	if err := m.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search returns at most k entries ordered by descending cosine similarity.
// Asking for more than the collection holds returns everything.
func (m *VectorDBManager) Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error) {
	if len(query) == 0 {
		return nil, errors.New("query embedding must be provided")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	count := m.collection.Count()
	if count == 0 {
		return nil, nil
	}
	k = min(k, count)

	results, err := m.collection.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, models.SearchResult{
			Chunk: ParseMetadata(r.Content, r.Metadata),
			Score: r.Similarity,
		})
	}
	return out, nil
}

// Reset drops every entry by deleting and recreating the collection.
func (m *VectorDBManager) Reset(ctx context.Context) error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	m.existed = false
	_, err := m.GetOrCreateCollection()
	return err
}

func (m *VectorDBManager) Close() error { return nil }

// Export writes the collection to a single file, encrypted when an
// encryption key is configured.
func (m *VectorDBManager) Export(ctx context.Context, filePath string) error {
	if filePath == "" {
		return errors.New("export file path is required")
	}

	log.Debug().
		Str("collection", m.collectionName).
		Str("file", filePath).
		Bool("compress", m.compress).
		Bool("encrypted", m.encryptionKey != "").
		Msg("Exporting collection")

	if err := m.db.ExportToFile(filePath, m.compress, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import replaces the collection with the one stored in filePath.
func (m *VectorDBManager) Import(ctx context.Context, filePath string) error {
	if _, err := os.Stat(filePath); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	// the import only writes the snapshot's documents, stale files would reload on the next start
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	if err := m.db.ImportFromFile(filePath, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	_, err := m.GetOrCreateCollection()
	return err
}

// CreateMetadata flattens chunk metadata into chromem's string map.
func CreateMetadata(doc models.ChunkEmbedding) map[string]string {
	return map[string]string{
		models.MetadataSource:  doc.SourceFilename,
		models.MetadataPage:    strconv.Itoa(doc.PageNumber),
		models.MetadataChunkID: strconv.Itoa(doc.ChunkID),
	}
}

func ParseMetadata(content string, metadata map[string]string) models.Chunk {
	page, _ := strconv.Atoi(metadata[models.MetadataPage])
	chunkID, _ := strconv.Atoi(metadata[models.MetadataChunkID])
	return models.Chunk{
		Source:     metadata[models.MetadataSource],
		Content:    content,
		PageNumber: page,
		ChunkID:    chunkID,
	}
}
