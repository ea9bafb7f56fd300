package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"pdf-rag/internal/config"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
)

// Asker answers one question. *rag.RAG is the production implementation.
type Asker interface {
	Ask(ctx context.Context, question string) (*models.PromptResponse, error)
}

type REPL struct {
	asker      Asker
	cfg        *config.ShellConfig
	in         io.Reader
	out        io.Writer
	spinner    bool
	transcript models.Transcript
}

func NewREPL(asker Asker, cfg *config.ShellConfig, in io.Reader, out io.Writer) *REPL {
	return &REPL{asker: asker, cfg: cfg, in: in, out: out}
}

// WithSpinner shows an animated spinner while a question is processed.
func (r *REPL) WithSpinner(enabled bool) *REPL {
	r.spinner = enabled
	return r
}

func (r *REPL) Transcript() []models.Turn {
	return r.transcript.Turns()
}

// Run reads questions until a quit word, end of input or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	userPrompt := color.New(color.FgGreen).FprintfFunc()
	assistantPrompt := color.New(color.FgCyan).FprintfFunc()
	errorPrompt := color.New(color.FgRed).FprintfFunc()

	color.New(color.FgCyan).Fprintf(r.out, "\nAsk questions about the document (type '%s' to quit)\n", strings.Join(r.cfg.QuitWords, "', '"))

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		userPrompt(r.out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			if err := ctx.Err(); err != nil {
				return err
			}
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if IsQuit(r.cfg.QuitWords, question) {
			return nil
		}

		r.transcript.Append(models.RoleUser, question)

		bar := r.newSpinner(" Thinking...")
		resp, err := r.asker.Ask(ctx, question)
		bar.Finish()
		fmt.Fprintln(r.out)

		if err != nil {
			log.Error().Err(err).Str("query", question).Msg("Error answering question")
			msg := llmservice.Describe(err)
			r.transcript.Append(models.RoleAssistant, msg)
			errorPrompt(r.out, "Error: %s\n", msg)
			continue
		}

		r.transcript.Append(models.RoleAssistant, resp.Content)
		assistantPrompt(r.out, "Assistant: ")
		fmt.Fprintf(r.out, "%s\n", resp.Content)
		fmt.Fprintln(r.out, r.cfg.Separator)
	}
}

func (r *REPL) newSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(r.spinner),
		progressbar.OptionSetVisibility(r.spinner),
		progressbar.OptionClearOnFinish(),
	)
}

// IsQuit reports whether line is one of the quit words, ignoring case.
func IsQuit(quitWords []string, line string) bool {
	line = strings.TrimSpace(line)
	for _, w := range quitWords {
		if strings.EqualFold(line, w) {
			return true
		}
	}
	return false
}
