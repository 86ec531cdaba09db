package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/dm-insight-core/server/internal/agent/graph"
	"github.com/dm-insight-core/server/internal/agent/model"
	"github.com/dm-insight-core/server/internal/agent/repo"
	"github.com/dm-insight-core/server/internal/agent/variables"
	"github.com/dm-insight-core/server/internal/analysis"
	"github.com/dm-insight-core/server/internal/analysis/predict"
	"github.com/dm-insight-core/server/internal/analysis/stats"
	"github.com/dm-insight-core/server/internal/api"
	"github.com/dm-insight-core/server/internal/core"
	"github.com/dm-insight-core/server/internal/search"
	logx "github.com/dm-insight-core/server/pkg/logger"
	"github.com/dm-insight-core/server/pkg/postgres"
	pkgredis "github.com/dm-insight-core/server/pkg/redis"
	"github.com/dm-insight-core/server/pkg/tracing"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"APP_ENV" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`
	// SchemaFile overrides the embedded variable schema.
	SchemaFile string `envconfig:"VARIABLE_SCHEMA_FILE"`

	// Infrastructure
	Redis     pkgredis.Config
	Postgres  postgres.Config
	Predictor predict.Config
	HTTP      model.HTTPConfig
	Tracing   tracing.Config

	// Agent configs
	Gemini     model.GeminiConfig
	Classifier model.ClassifierModelConfig
	Extractor  model.ExtractorModelConfig
	Question   model.QuestionModelConfig
	Prompt     model.PromptConfig
	Search     search.Config
	Session    model.SessionConfig
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment, Level: cfg.LogLevel})

	shutdownTracing := tracing.Init(ctx, cfg.Tracing, cfg.Environment.String())
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logx.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	schema, err := loadSchema(cfg.SchemaFile)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to load variable schema")
	}

	svc, err := buildAnalysis(cfg, schema)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build analysis service")
	}

	sessions, closeSessions, err := buildSessionRepo(ctx, cfg)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise session store")
	}
	defer closeSessions()

	runner, err := graph.BuildResponseGraph(ctx, graph.Config{
		Gemini:      cfg.Gemini,
		Classifier:  cfg.Classifier,
		Extractor:   cfg.Extractor,
		Question:    cfg.Question,
		Prompt:      cfg.Prompt,
		Search:      cfg.Search,
		Schema:      schema,
		Analysis:    svc,
		SessionRepo: sessions,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build graph")
	}

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.NewServer(cfg.HTTP, runner, svc).Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", srv.Addr).Str("env", cfg.Environment.String()).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logx.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
	logx.Info().Msg("server stopped")
}

func loadSchema(path string) (*variables.Schema, error) {
	if path == "" {
		return variables.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return variables.Parse(data)
}

// buildAnalysis picks the statistics database when configured and the
// embedded tables otherwise.
func buildAnalysis(cfg AppConfig, schema *variables.Schema) (*analysis.Service, error) {
	var source stats.Source = stats.Static{}
	if cfg.Postgres.Enabled() {
		db, err := cfg.Postgres.Open()
		if err != nil {
			return nil, err
		}
		source = stats.NewDB(db)
		logx.Info().Msg("statistics served from database")
	}

	var predictor analysis.Predictor
	if cfg.Predictor.Enabled() {
		predictor = predict.New(cfg.Predictor)
		logx.Info().Str("base_url", cfg.Predictor.BaseURL).Msg("prediction service configured")
	} else {
		logx.Warn().Msg("no prediction service configured, predictions use fallback values")
	}

	return analysis.NewService(analysis.NewInvoker(predictor, source), schema), nil
}

func buildSessionRepo(ctx context.Context, cfg AppConfig) (model.SessionRepository, func(), error) {
	if cfg.Session.Store != "redis" {
		logx.Info().Dur("ttl", cfg.Session.TTL).Msg("sessions kept in memory")
		return repo.NewMemorySessionRepository(cfg.Session.TTL), func() {}, nil
	}
	if !cfg.Redis.Enabled() {
		return nil, nil, errors.New("SESSION_STORE=redis requires REDIS_URL")
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	logx.Info().Dur("ttl", cfg.Session.TTL).Msg("connected to Redis session store")
	return repo.NewRedisSessionRepository(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }, nil
}
