// Package server exposes the answer loop over HTTP: a JSON chat endpoint,
// a session-history listing and a minimal built-in chat page.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/xagent/agent"
	"github.com/smallnest/xagent/log"
	"github.com/smallnest/xagent/store"
)

// Agent runs one question-answering session.
type Agent interface {
	Run(ctx context.Context, question string) (*agent.Result, error)
}

// Server is the HTTP front of xagent.
type Server struct {
	app       *fiber.App
	agent     Agent
	history   store.HistoryStore
	sanitizer *bluemonday.Policy
	logger    log.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(logger log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a server over the given agent and history store.
func New(agent Agent, history store.HistoryStore, opts ...Option) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		ReadTimeout:           30 * time.Second,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:       app,
		agent:     agent,
		history:   history,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Get("/healthz", s.handleHealth)

	api := app.Group("/xagent")
	api.Post("/chat", s.handleChat)
	api.Get("/history", s.handleHistory)
	api.Get("/history/:id", s.handleHistoryRecord)

	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	SessionID        string `json:"session_id"`
	Answer           string `json:"answer"`
	AnswerHTML       string `json:"answer_html"`
	DocumentCount    int    `json:"document_count"`
	RetryCount       int    `json:"retry_count"`
	GenerateAttempts int    `json:"generate_attempts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "question is required"})
	}

	res, err := s.agent.Run(c.Context(), req.Question)
	if err != nil {
		s.logger.Error("chat failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "session failed"})
	}

	rec := &store.Record{
		ID:               res.SessionID,
		Question:         req.Question,
		FinalQuestion:    res.FinalQuestion,
		Answer:           res.Answer,
		DocumentCount:    len(res.Documents),
		RetryCount:       res.RetryCount,
		GenerateAttempts: res.GenerateAttempts,
		CreatedAt:        time.Now(),
	}
	if err := s.history.Save(c.Context(), rec); err != nil {
		// History is best-effort; the user still gets the answer.
		s.logger.Warn("failed to save history for session %s: %v", res.SessionID, err)
	}

	return c.JSON(chatResponse{
		SessionID:        res.SessionID,
		Answer:           res.Answer,
		AnswerHTML:       s.renderMarkdown(res.Answer),
		DocumentCount:    len(res.Documents),
		RetryCount:       res.RetryCount,
		GenerateAttempts: res.GenerateAttempts,
	})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, err := s.history.Recent(c.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list history: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to list history"})
	}
	if records == nil {
		records = []*store.Record{}
	}
	return c.JSON(records)
}

func (s *Server) handleHistoryRecord(c *fiber.Ctx) error {
	rec, err := s.history.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "record not found"})
		}
		s.logger.Error("failed to load history record: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to load record"})
	}
	return c.JSON(rec)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(indexPage)
}

// renderMarkdown converts a model answer to sanitized HTML.
func (s *Server) renderMarkdown(text string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	raw := markdown.ToHTML([]byte(text), p, renderer)
	return string(s.sanitizer.SanitizeBytes(raw))
}
