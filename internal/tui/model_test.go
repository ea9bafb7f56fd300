package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-rag/internal/models"
)

type fakeAsker struct {
	err       error
	questions []string
}

func (f *fakeAsker) Ask(ctx context.Context, question string) (*models.PromptResponse, error) {
	f.questions = append(f.questions, question)
	if f.err != nil {
		return nil, f.err
	}
	return &models.PromptResponse{Query: question, Content: "answer to " + question}, nil
}

func newModel(asker *fakeAsker) Model {
	m := New(context.Background(), asker, []string{"exit", "quit", "q"}, "paper.pdf: 12 chunks")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func submit(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

// answer runs the Ask command produced by submit and feeds its result back.
func answer(t *testing.T, m Model, question string) Model {
	t.Helper()
	msg := m.ask(question)()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestAskRoundTrip(t *testing.T) {
	asker := &fakeAsker{}
	m := newModel(asker)

	m, cmd := submit(t, m, "  What is a paraphrase?  ")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)
	assert.Equal(t, "", m.input.Value())

	m = answer(t, m, "What is a paraphrase?")
	assert.False(t, m.busy)
	assert.Equal(t, []string{"What is a paraphrase?"}, asker.questions)

	turns := m.transcript.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "answer to What is a paraphrase?", turns[1].Text)
	assert.Contains(t, m.View(), "answer to What is a paraphrase?")
}

func TestBlankInputIsIgnored(t *testing.T) {
	asker := &fakeAsker{}
	m, cmd := submit(t, newModel(asker), "   ")
	assert.Nil(t, cmd)
	assert.False(t, m.busy)
	assert.Zero(t, m.transcript.Len())
}

func TestQuitWord(t *testing.T) {
	_, cmd := submit(t, newModel(&fakeAsker{}), "Exit")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestErrorShownAsAssistantTurn(t *testing.T) {
	asker := &fakeAsker{err: errors.New("dial tcp: connection refused")}
	m, _ := submit(t, newModel(asker), "What is a paraphrase?")
	m = answer(t, m, "What is a paraphrase?")

	turns := m.transcript.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleAssistant, turns[1].Role)
	assert.Contains(t, turns[1].Text, "Could not reach")
}

func TestEnterWhileBusyDoesNothing(t *testing.T) {
	asker := &fakeAsker{}
	m, _ := submit(t, newModel(asker), "first")
	m, cmd := submit(t, m, "second")
	assert.Nil(t, cmd)
	assert.Equal(t, 1, m.transcript.Len())
}
