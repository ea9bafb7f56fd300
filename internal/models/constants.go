package models

const (
	ContextSeparator = "\n\n"

	MetadataSource  = "source"
	MetadataPage    = "page"
	MetadataChunkID = "chunk_id"
)

var (
	DefaultPromptTemplate = `You are a helpful assistant. Answer the question using the context below.

RULES:
1. Answer in the same language as the question, even when the context is in another language.
2. Use only the information in the context.
3. If the answer is not in the context, say explicitly that the document does not contain it.

Context:
{{.context}}

Question: {{.question}}

Answer:`
)
