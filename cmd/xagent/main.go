// Command xagent answers questions about what's happening on X (Twitter).
// It retrieves live posts, grades them for relevance, and generates grounded
// answers through a bounded self-corrective loop.
//
// By default it serves an HTTP chat API; with -q it answers one question on
// the command line and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/xagent/agent"
	"github.com/smallnest/xagent/config"
	"github.com/smallnest/xagent/llm"
	"github.com/smallnest/xagent/log"
	"github.com/smallnest/xagent/rag"
	"github.com/smallnest/xagent/server"
	"github.com/smallnest/xagent/store"
	memorystore "github.com/smallnest/xagent/store/memory"
	"github.com/smallnest/xagent/store/postgres"
	"github.com/smallnest/xagent/store/sqlite"
	"github.com/smallnest/xagent/twitter"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		question   = flag.String("q", "", "answer one question and exit")
		listen     = flag.String("listen", "", "HTTP listen address (overrides config)")
	)
	flag.Parse()

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "xagent: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	setupLogging(cfg.LogLevel)

	if err := run(cfg, *question); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, question string) error {
	client, err := llm.NewOpenAIClient(cfg.LLM.APIKey,
		llm.WithBaseURL(cfg.LLM.BaseURL),
		llm.WithModel(cfg.LLM.Model),
		llm.WithTemperature(cfg.LLM.Temperature),
	)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	fetcher, closeFetcher, err := buildFetcher(cfg)
	if err != nil {
		return err
	}
	defer closeFetcher()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	retriever := rag.NewPipelineRetriever(fetcher, embedder)

	engine := agent.NewEngine(retriever, client, agent.WithConfig(agent.Config{
		MaxRetries:          cfg.Agent.MaxRetries,
		MaxGenerateAttempts: cfg.Agent.MaxGenerateAttempts,
		GradeConcurrency:    cfg.Agent.GradeConcurrency,
		FetchTimeout:        cfg.Agent.FetchTimeout,
		LLMTimeout:          cfg.Agent.LLMTimeout,
	}))

	history, err := buildHistory(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	if question != "" {
		return runOnce(engine, history, question)
	}
	return serve(cfg, engine, history)
}

func serve(cfg *config.Config, engine *agent.Engine, history store.HistoryStore) error {
	srv := server.New(engine, history)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Listen)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("received %s, shutting down", sig)
		return srv.Shutdown()
	}
}

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	answerStyle   = lipgloss.NewStyle().PaddingLeft(2)
	metaStyle     = lipgloss.NewStyle().Faint(true).PaddingLeft(2)
)

func runOnce(engine *agent.Engine, history store.HistoryStore, question string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println(questionStyle.Render("Q: " + question))

	res, err := engine.Run(ctx, question)
	if err != nil {
		return err
	}

	fmt.Println(answerStyle.Render(res.Answer))
	fmt.Println(metaStyle.Render(fmt.Sprintf("%d sources, %d rewrites, %d generations",
		len(res.Documents), res.RetryCount, res.GenerateAttempts)))

	if err := saveResult(ctx, history, question, res); err != nil {
		log.Warn("failed to save history: %v", err)
	}
	return nil
}

func saveResult(ctx context.Context, history store.HistoryStore, question string, res *agent.Result) error {
	return history.Save(ctx, &store.Record{
		ID:               res.SessionID,
		Question:         question,
		FinalQuestion:    res.FinalQuestion,
		Answer:           res.Answer,
		DocumentCount:    len(res.Documents),
		RetryCount:       res.RetryCount,
		GenerateAttempts: res.GenerateAttempts,
		CreatedAt:        time.Now(),
	})
}

func buildFetcher(cfg *config.Config) (twitter.Fetcher, func(), error) {
	var (
		fetcher twitter.Fetcher
		err     error
	)
	switch cfg.Twitter.Mode {
	case "scrape":
		fetcher, err = twitter.NewScrapeClient(cfg.Twitter.MirrorURL)
	default:
		fetcher, err = twitter.NewAPIClient(cfg.Twitter.BearerToken,
			twitter.WithAPICount(cfg.Twitter.MaxResults))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	if cfg.Cache.RedisAddr == "" {
		return fetcher, func() {}, nil
	}

	cached := twitter.NewCachedFetcher(fetcher, twitter.CacheOptions{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		TTL:      cfg.Cache.TTL,
	})
	return cached, func() { cached.Close() }, nil
}

func buildEmbedder(cfg *config.Config) (rag.Embedder, error) {
	if cfg.Embedding.Provider == "openai" {
		model, err := lcopenai.New(
			lcopenai.WithToken(cfg.LLM.APIKey),
			lcopenai.WithBaseURL(cfg.LLM.BaseURL),
			lcopenai.WithEmbeddingModel(cfg.Embedding.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedding model: %w", err)
		}
		embedder, err := embeddings.NewEmbedder(model)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		return rag.NewLangChainEmbedder(embedder), nil
	}
	return rag.NewHashEmbedder(cfg.Embedding.Dim), nil
}

func buildHistory(cfg *config.Config) (store.HistoryStore, error) {
	switch cfg.History.Driver {
	case "sqlite":
		return sqlite.NewHistoryStore(sqlite.Options{Path: cfg.History.Path})
	case "postgres":
		ctx := context.Background()
		s, err := postgres.NewHistoryStore(ctx, postgres.Options{ConnString: cfg.History.ConnString})
		if err != nil {
			return nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return memorystore.NewHistoryStore(), nil
	}
}

func setupLogging(level string) {
	logger := golog.New()
	logger.SetLevel(level)
	log.SetDefaultLogger(log.NewGologLogger(logger))
}
