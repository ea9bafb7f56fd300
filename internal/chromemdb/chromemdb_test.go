package chromemdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pdf-rag/internal/embedding"
	"pdf-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectionName = "test_collection"

var sentences = []string{
	"Paraphrase means restating text with different words while preserving meaning.",
	"Tokenization splits a sentence into tokens.",
	"Stemming reduces words to their root form.",
}

func seed(t *testing.T, m *VectorDBManager, emb *embedding.HashEmbedder) {
	t.Helper()
	ctx := context.Background()

	var docs []models.ChunkEmbedding
	for i, s := range sentences {
		vec, err := emb.EmbedQuery(ctx, s)
		require.NoError(t, err)
		docs = append(docs, models.ChunkEmbedding{
			Content:        s,
			Embedding:      vec,
			SourceFilename: "nlp.pdf",
			PageNumber:     i + 1,
			ChunkID:        1,
		})
	}
	require.NoError(t, m.AddDocuments(ctx, docs))
}

func TestSearchRanksAndCaps(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewHashEmbedder(256)

	m, err := NewVectorDBManager(filepath.Join(t.TempDir(), "db"), collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)
	seed(t, m, emb)

	query, err := emb.EmbedQuery(ctx, "paraphrase restating text")
	require.NoError(t, err)

	results, err := m.Search(ctx, query, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, sentences[0], results[0].Chunk.Content)
	assert.Equal(t, 1, results[0].Chunk.PageNumber)
	assert.Equal(t, "nlp.pdf", results[0].Chunk.Source)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	// more than the store holds is capped, not an error
	results, err = m.Search(ctx, query, 10)
	require.NoError(t, err)
	assert.Len(t, results, len(sentences))

	_, err = m.Search(ctx, query, 0)
	assert.Error(t, err)
	_, err = m.Search(ctx, nil, 3)
	assert.Error(t, err)
}

func TestSearchEmptyStore(t *testing.T) {
	emb := embedding.NewHashEmbedder(32)
	m, err := NewVectorDBManager("", collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)

	query, _ := emb.EmbedQuery(context.Background(), "anything")
	results, err := m.Search(context.Background(), query, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReopenKeepsEntriesWithoutRewriting(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewHashEmbedder(64)
	dir := filepath.Join(t.TempDir(), "db")

	m, err := NewVectorDBManager(dir, collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)
	populated, err := m.Populated(ctx)
	require.NoError(t, err)
	assert.False(t, populated)
	seed(t, m, emb)

	before, err := os.Stat(dir)
	require.NoError(t, err)

	reopened, err := NewVectorDBManager(dir, collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)

	populated, err = reopened.Populated(ctx)
	require.NoError(t, err)
	assert.True(t, populated)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sentences), count)

	after, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewHashEmbedder(64)
	dir := filepath.Join(t.TempDir(), "db")

	m, err := NewVectorDBManager(dir, collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)
	seed(t, m, emb)

	require.NoError(t, m.Reset(ctx))
	count, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	populated, err := m.Populated(ctx)
	require.NoError(t, err)
	assert.False(t, populated)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewHashEmbedder(64)
	key := "0123456789abcdef0123456789abcdef"
	snapshot := filepath.Join(t.TempDir(), "snapshot.gob.enc")

	src, err := NewVectorDBManager("", collectionName, false, key, embedding.ChromemFunc(emb))
	require.NoError(t, err)
	seed(t, src, emb)
	require.NoError(t, src.Export(ctx, snapshot))

	dst, err := NewVectorDBManager("", collectionName, false, key, embedding.ChromemFunc(emb))
	require.NoError(t, err)
	require.NoError(t, dst.Import(ctx, snapshot))

	count, err := dst.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(sentences), count)

	assert.Error(t, dst.Import(ctx, filepath.Join(t.TempDir(), "missing")))
	assert.Error(t, src.Export(ctx, ""))
}

func TestImportReplacesPersistedEntries(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewHashEmbedder(64)
	snapshot := filepath.Join(t.TempDir(), "snapshot.gob")
	dbPath := filepath.Join(t.TempDir(), "db")

	src, err := NewVectorDBManager("", collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)
	vec, err := emb.EmbedQuery(ctx, "Lemmatization maps words to dictionary forms.")
	require.NoError(t, err)
	require.NoError(t, src.AddDocuments(ctx, []models.ChunkEmbedding{{
		Content:        "Lemmatization maps words to dictionary forms.",
		Embedding:      vec,
		SourceFilename: "other.pdf",
		PageNumber:     4,
		ChunkID:        1,
	}}))
	require.NoError(t, src.Export(ctx, snapshot))

	dst, err := NewVectorDBManager(dbPath, collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)
	seed(t, dst, emb)
	require.NoError(t, dst.Import(ctx, snapshot))

	count, err := dst.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.NoError(t, dst.Close())

	reopened, err := NewVectorDBManager(dbPath, collectionName, false, "", embedding.ChromemFunc(emb))
	require.NoError(t, err)
	count, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := reopened.Search(ctx, vec, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "other.pdf", results[0].Chunk.Source)
}

func TestMetadataRoundTrip(t *testing.T) {
	doc := models.ChunkEmbedding{Content: "text", SourceFilename: "a.pdf", PageNumber: 7, ChunkID: 3}
	chunk := ParseMetadata(doc.Content, CreateMetadata(doc))
	assert.Equal(t, models.Chunk{Source: "a.pdf", Content: "text", PageNumber: 7, ChunkID: 3}, chunk)
}
