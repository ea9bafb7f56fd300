package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	questions []string
	err       error
}

func (f *fakeAsker) Ask(ctx context.Context, question string) (*models.PromptResponse, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return nil, f.err
	}
	return &models.PromptResponse{Query: question, Content: "answer to " + question}, nil
}

func run(t *testing.T, asker Asker, input string) (*REPL, string) {
	t.Helper()
	var out bytes.Buffer
	cfg := config.Default().Shell
	repl := NewREPL(asker, &cfg, strings.NewReader(input), &out)
	require.NoError(t, repl.Run(context.Background()))
	return repl, out.String()
}

func TestREPLAnswersUntilQuit(t *testing.T) {
	asker := &fakeAsker{}
	repl, out := run(t, asker, "What is a paraphrase?\nQUIT\nnever asked\n")

	assert.Equal(t, []string{"What is a paraphrase?"}, asker.questions)
	assert.Contains(t, out, "answer to What is a paraphrase?")
	assert.Contains(t, out, config.Default().Shell.Separator)
	assert.NotContains(t, out, "never asked")

	turns := repl.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
}

func TestREPLIgnoresBlankLines(t *testing.T) {
	asker := &fakeAsker{}
	_, _ = run(t, asker, "\n   \n\t\nq\n")
	assert.Empty(t, asker.questions)
}

func TestREPLStopsAtEOF(t *testing.T) {
	asker := &fakeAsker{}
	_, _ = run(t, asker, "first\nsecond")
	assert.Equal(t, []string{"first", "second"}, asker.questions)
}

func TestREPLKeepsGoingAfterError(t *testing.T) {
	asker := &fakeAsker{err: errors.New("429 Too Many Requests")}
	repl, out := run(t, asker, "one\ntwo\nexit\n")

	assert.Len(t, asker.questions, 2)
	assert.Contains(t, out, "quota")
	assert.Len(t, repl.Transcript(), 4)
}

func TestIsQuit(t *testing.T) {
	words := []string{"exit", "quit", "q"}
	assert.True(t, IsQuit(words, "exit"))
	assert.True(t, IsQuit(words, " Q "))
	assert.True(t, IsQuit(words, "Quit"))
	assert.False(t, IsQuit(words, "quitting"))
	assert.False(t, IsQuit(words, ""))
}
