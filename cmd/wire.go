package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/ai"
	"github.com/crb12546/musical-memory/internal/ai/gemini"
	"github.com/crb12546/musical-memory/internal/analytics"
	"github.com/crb12546/musical-memory/internal/recruiting"
	"github.com/crb12546/musical-memory/internal/secrets"
	"github.com/crb12546/musical-memory/internal/store"
)

func newClient(logger *zap.Logger, config *Config) *recruiting.Client {
	client := recruiting.New(logger.Named("client"), config.API.BaseURL)

	if origin := strings.TrimSpace(config.API.Origin); origin != "" {
		client.Origin = origin
	}
	if config.API.UserAgent != "" {
		client.UserAgent = config.API.UserAgent
	}
	if config.API.Timeout > 0 {
		client.HTTPClient.Timeout = config.API.Timeout
	}

	return client
}

// newStore wires a store over client. reg may be nil when metrics are not exported.
func newStore(logger *zap.Logger, config *Config, client *recruiting.Client, reg prometheus.Registerer) *store.Store {
	opts := []store.Option{
		store.WithLogger(logger.Named("store")),
		store.WithInterval(config.Refresh.Interval),
	}
	if reg != nil {
		opts = append(opts, store.WithMetrics(store.NewMetrics(reg)))
	}
	return store.New(client, opts...)
}

func progressStages(config *Config) (analytics.Stages, error) {
	stages, err := analytics.StagesByName(config.Progress.Stages)
	if err != nil {
		return nil, fmt.Errorf("progress.stages: %w", err)
	}
	return stages, nil
}

// load runs one refresh round and fails only when nothing at all could be loaded.
func load(ctx context.Context, logger *zap.Logger, s *store.Store) (store.Snapshot, error) {
	errs := s.RefreshAll(ctx)
	if len(errs) == len(store.Kinds) {
		return store.Snapshot{}, errs.Err()
	}
	if err := errs.Err(); err != nil {
		logger.Warn("some collections could not be loaded", zap.Error(err))
	}
	return s.Snapshot(), nil
}

// report logs a failed operation with its user-facing message and returns err.
func report(logger *zap.Logger, msg string, err error) error {
	fields := []zap.Field{zap.String("reason", recruiting.UserMessage(err))}

	var verr *recruiting.ValidationError
	if errors.As(err, &verr) {
		fields = append(fields, zap.String("field", verr.Field))
	}
	var apiErr *recruiting.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("status", apiErr.StatusCode))
	}

	logger.Error(msg, append(fields, zap.Error(err))...)
	return err
}

func newAIMatcher(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Matcher, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, logger.Named("gemini"), apiKey, cfg.Gemini.Model)
	if err != nil {
		return nil, err
	}

	minScore := cfg.MinimumFitScore
	if minScore < 0 {
		minScore = 0
	}

	matcherLogger := logger.Named("matcher").With(zap.Float64("minimum_fit_score", minScore))

	return gemini.NewMatcher(generator, minScore, cfg.Gemini.MaxLogLength, matcherLogger), nil
}
