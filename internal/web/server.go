package web

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"pdf-rag/internal/config"
	"pdf-rag/internal/llmservice"
	"pdf-rag/internal/models"
	"pdf-rag/internal/shell"
)

const transcriptKey = "transcript"

type Server struct {
	app   *fiber.App
	asker shell.Asker
	store *session.Store
	cfg   *config.WebConfig
	md    goldmark.Markdown
	page  *template.Template
}

type message struct {
	Role string
	HTML template.HTML
}

func NewServer(asker shell.Asker, cfg *config.WebConfig) *Server {
	s := &Server{
		app:   fiber.New(fiber.Config{DisableStartupMessage: true}),
		asker: asker,
		store: session.New(),
		cfg:   cfg,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		page: template.Must(template.New("chat").Parse(chatPage)),
	}
	s.app.Get("/", s.handleIndex)
	s.app.Post("/ask", s.handleAsk)
	return s
}

func (s *Server) App() *fiber.App { return s.app }

// Listen serves until ctx is cancelled.
func (s *Server) Listen(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()
		if err := s.app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Error shutting down web server")
		}
	}()
	log.Info().Str("addr", addr).Msg("Web chat listening")
	return s.app.Listen(addr)
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return err
	}
	transcript := loadTranscript(sess)

	messages := make([]message, 0, transcript.Len())
	for _, turn := range transcript.Turns() {
		messages = append(messages, message{Role: string(turn.Role), HTML: s.render(turn.Text)})
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, map[string]any{
		"Title":    s.cfg.Title,
		"Messages": messages,
	}); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	question := strings.TrimSpace(utils.CopyString(c.FormValue("question")))
	if question == "" {
		return c.Redirect("/", fiber.StatusSeeOther)
	}

	sess, err := s.store.Get(c)
	if err != nil {
		return err
	}
	transcript := loadTranscript(sess)
	transcript.Append(models.RoleUser, question)

	resp, err := s.asker.Ask(c.UserContext(), question)
	if err != nil {
		log.Error().Err(err).Str("query", question).Msg("Error answering question")
		transcript.Append(models.RoleAssistant, llmservice.Describe(err))
	} else {
		transcript.Append(models.RoleAssistant, resp.Content)
	}

	data, err := json.Marshal(transcript)
	if err != nil {
		return err
	}
	sess.Set(transcriptKey, string(data))
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (s *Server) render(text string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

func loadTranscript(sess *session.Session) *models.Transcript {
	t := &models.Transcript{}
	raw, ok := sess.Get(transcriptKey).(string)
	if !ok || raw == "" {
		return t
	}
	if err := json.Unmarshal([]byte(raw), t); err != nil {
		log.Warn().Err(err).Msg("Dropping unreadable transcript")
		return &models.Transcript{}
	}
	return t
}
