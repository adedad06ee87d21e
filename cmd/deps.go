package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/zigzig/talent-matcher/internal/ai"
	"github.com/zigzig/talent-matcher/internal/ai/gemini"
	"github.com/zigzig/talent-matcher/internal/ai/groq"
	"github.com/zigzig/talent-matcher/internal/api"
	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/logger"
	"github.com/zigzig/talent-matcher/internal/matching"
	"github.com/zigzig/talent-matcher/internal/portfolio"
	"github.com/zigzig/talent-matcher/internal/scheduler"
	"github.com/zigzig/talent-matcher/internal/scoring"
	"github.com/zigzig/talent-matcher/internal/secrets"
	"github.com/zigzig/talent-matcher/internal/storage/memory"
	"github.com/zigzig/talent-matcher/internal/storage/postgres"
	redisstore "github.com/zigzig/talent-matcher/internal/storage/redis"
	"github.com/zigzig/talent-matcher/internal/utils"
)

const (
	scorerLLM       = "llm"
	scorerHeuristic = "heuristic"

	driverMemory   = "memory"
	driverPostgres = "postgres"
)

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// generators builds ai.Generator chains from provider:model entries. Backend
// clients are created once and every generator shares one rate limiter.
type generators struct {
	cfg     *AIConfig
	limiter *rate.Limiter
	logger  *zap.Logger

	groq   *groq.Client
	gemini *genai.Client
}

func newGenerators(cfg *AIConfig, logger *zap.Logger) *generators {
	return &generators{
		cfg:     cfg,
		limiter: ai.NewLimiter(cfg.RequestsPerSecond),
		logger:  logger,
	}
}

// chain skips models whose provider has no API key and fails only when
// nothing usable is left.
func (g *generators) chain(ctx context.Context, models []string) ([]ai.Generator, error) {
	var out []ai.Generator
	for _, entry := range models {
		provider, model := splitModel(entry)

		gen, err := g.generator(ctx, provider, model)
		if errors.Is(err, secrets.ErrNotConfigured) {
			g.logger.Warn("skipping model", zap.String("model", entry), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", entry, err)
		}
		out = append(out, ai.NewLimited(gen, g.limiter))
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no usable models in %v (set GROQ_API_KEY or GEMINI_API_KEY)", models)
	}
	return out, nil
}

func (g *generators) generator(ctx context.Context, provider, model string) (ai.Generator, error) {
	switch provider {
	case groq.Provider:
		if g.groq == nil {
			key, err := secrets.Load(secrets.Source{Name: "groq api key", File: g.cfg.Groq.APIKeyFile, Value: g.cfg.Groq.APIKey})
			if err != nil {
				return nil, err
			}
			if g.groq, err = groq.NewClient(key, g.cfg.Groq.BaseURL); err != nil {
				return nil, err
			}
		}
		return g.groq.Model(model), nil
	case gemini.Provider:
		if g.gemini == nil {
			key, err := secrets.Load(secrets.Source{Name: "gemini api key", File: g.cfg.Gemini.APIKeyFile, Value: g.cfg.Gemini.APIKey})
			if err != nil {
				return nil, err
			}
			if g.gemini, err = gemini.NewClient(ctx, key); err != nil {
				return nil, err
			}
		}
		return gemini.NewGenerator(g.gemini, model, g.cfg.Gemini.MaxRetries, g.logger)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", provider)
	}
}

// splitModel defaults to groq when the entry has no provider prefix.
func splitModel(entry string) (provider, model string) {
	entry = strings.TrimSpace(entry)
	if p, m, ok := strings.Cut(entry, ":"); ok {
		return strings.ToLower(strings.TrimSpace(p)), strings.TrimSpace(m)
	}
	return groq.Provider, entry
}

func newScorer(ctx context.Context, cfg *Config, gens *generators, logger *zap.Logger) (scoring.Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Matching.Scorer)) {
	case scorerHeuristic:
		logger.Info("using the heuristic scorer")
		return scoring.Heuristic{}, nil
	case "", scorerLLM:
		chain, err := gens.chain(ctx, cfg.AI.ScoringModels)
		if err != nil {
			return nil, fmt.Errorf("scoring models: %w", err)
		}
		return scoring.NewLLMScorer(chain, cfg.AI.Temperature, cfg.AI.MaxTokens, logger.Named("scorer")), nil
	default:
		return nil, fmt.Errorf("unsupported scorer: %s", cfg.Matching.Scorer)
	}
}

func newExtractor(ctx context.Context, cfg *Config, gens *generators, logger *zap.Logger) (*job.Extractor, error) {
	chain, err := gens.chain(ctx, cfg.AI.ExtractionModels)
	if err != nil {
		return nil, fmt.Errorf("extraction models: %w", err)
	}
	return job.NewExtractor(chain, cfg.AI.Temperature, cfg.AI.MaxTokens, logger.Named("extractor")), nil
}

type jobStore interface {
	matching.JobRepository
	job.PostingStore
	scheduler.ActiveJobs
}

// stores holds the repositories picked by storage.driver.
type stores struct {
	jobs       jobStore
	portfolios matching.PortfolioSource
	cache      matching.PortfolioCache
	matches    matching.MatchRepository
	activity   matching.ActivityLog
	events     matching.EventPublisher
	checks     map[string]api.HealthCheck

	// redis is set only for the postgres driver.
	redis   *redisstore.Store
	closers []func()
}

func openStores(ctx context.Context, cfg *StorageConfig, logger *zap.Logger) (*stores, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", driverMemory:
		mem := memory.New()
		if cfg.SeedFile != "" {
			if err := mem.LoadSeed(cfg.SeedFile); err != nil {
				return nil, err
			}
			logger.Info("loaded seed file", zap.String("file", cfg.SeedFile))
		}
		return &stores{
			jobs:       mem,
			portfolios: mem,
			cache:      mem,
			matches:    mem,
			activity:   mem,
			events:     mem,
			checks:     map[string]api.HealthCheck{},
		}, nil

	case driverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("storage.database-url is required for the postgres driver (or set DATABASE_URL)")
		}
		if cfg.RedisURL == "" {
			return nil, errors.New("storage.redis-url is required for the postgres driver (or set REDIS_URL)")
		}

		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		pg := postgres.New(pool, logger.Named("postgres"))

		if cfg.Migrate {
			if err := pg.Migrate(ctx); err != nil {
				pg.Close()
				return nil, err
			}
		}

		client, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			pg.Close()
			return nil, err
		}
		rs := redisstore.New(client, logger.Named("redis"))

		return &stores{
			jobs:       pg,
			portfolios: pg,
			cache:      rs,
			matches:    rs,
			activity:   rs,
			events:     rs,
			checks: map[string]api.HealthCheck{
				"postgres": pg.Ping,
				"redis":    rs.Ping,
			},
			redis: rs,
			closers: []func(){
				pg.Close,
				func() {
					if err := rs.Close(); err != nil {
						logger.Warn("closing redis", zap.Error(err))
					}
				},
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func (s *stores) Close() {
	for _, c := range s.closers {
		c()
	}
}

// services is everything a command may need, built from one config.
type services struct {
	config     *Config
	logger     *zap.Logger
	stores     *stores
	background *utils.Background

	orchestrator *matching.Orchestrator
	reviewer     *matching.Reviewer
	jobs         *job.Service
}

type needs struct {
	scorer    bool
	extractor bool
}

func newServices(ctx context.Context, need needs) (*services, error) {
	logger := newLogger()

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	st, err := openStores(ctx, config.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	svc := &services{
		config:     config,
		logger:     logger,
		stores:     st,
		background: utils.NewBackground(logger.Named("background")),
	}

	gens := newGenerators(config.AI, logger)

	deps := matching.Deps{
		Jobs:       st.jobs,
		Portfolios: st.portfolios,
		Cache:      st.cache,
		Matches:    st.matches,
		Activity:   st.activity,
		Events:     st.events,
		Parser:     portfolio.NewParser(),
		Background: svc.background,
		Logger:     logger.Named("matching"),
	}

	if need.scorer {
		if deps.Scorer, err = newScorer(ctx, config, gens, logger); err != nil {
			svc.Close()
			return nil, err
		}
		svc.orchestrator = matching.NewOrchestrator(matching.Config{
			BatchSize:    config.Matching.BatchSize,
			BatchDelay:   config.Matching.BatchDelay,
			MinScore:     config.Matching.MinScore,
			ExcludeUsers: config.Matching.ExcludeUsers,
		}, deps)
	}
	svc.reviewer = matching.NewReviewer(deps)

	if need.extractor {
		extractor, err := newExtractor(ctx, config, gens, logger)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.jobs = job.NewService(extractor, st.jobs, logger.Named("jobs"))
	}

	return svc, nil
}

// Close waits for background side effects and releases storage.
func (s *services) Close() {
	s.background.Wait()
	s.stores.Close()
	_ = s.logger.Sync()
}
