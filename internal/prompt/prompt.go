package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"pdf-rag/internal/models"
)

const (
	VarContext  = "context"
	VarQuestion = "question"
)

var (
	ErrMissingContext = errors.New("no context to answer from")
	ErrEmptyQuestion  = errors.New("question is empty")
)

// Template renders the final prompt sent to the model.
type Template struct {
	tmpl prompts.PromptTemplate
}

// New parses text and checks that it uses both the context and the question
// placeholders. An empty text selects the default template.
func New(text string) (*Template, error) {
	if strings.TrimSpace(text) == "" {
		text = models.DefaultPromptTemplate
	}
	t := &Template{tmpl: prompts.NewPromptTemplate(text, []string{VarContext, VarQuestion})}

	const ctxMark, qMark = "\x00ctx\x00", "\x00q\x00"
	out, err := t.tmpl.Format(map[string]any{VarContext: ctxMark, VarQuestion: qMark})
	if err != nil {
		return nil, fmt.Errorf("invalid prompt template: %w", err)
	}
	if !strings.Contains(out, ctxMark) {
		return nil, fmt.Errorf("prompt template has no {{.%s}} placeholder", VarContext)
	}
	if !strings.Contains(out, qMark) {
		return nil, fmt.Errorf("prompt template has no {{.%s}} placeholder", VarQuestion)
	}
	return t, nil
}

// Render substitutes context and question verbatim.
func (t *Template) Render(context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	if strings.TrimSpace(context) == "" {
		return "", ErrMissingContext
	}
	return t.tmpl.Format(map[string]any{
		VarContext:  context,
		VarQuestion: question,
	})
}

// FormatContext joins the retrieved chunk texts in rank order.
func FormatContext(results []models.SearchResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Chunk.Content)
	}
	return strings.Join(texts, models.ContextSeparator)
}
