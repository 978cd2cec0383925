package app

import (
	"context"
	"fmt"
	"os"

	"github.com/ZanzyTHEbar/review-sentiment/internal/analysis"
	"github.com/ZanzyTHEbar/review-sentiment/internal/cache"
	"github.com/ZanzyTHEbar/review-sentiment/internal/classifier"
	"github.com/ZanzyTHEbar/review-sentiment/internal/config"
	"github.com/ZanzyTHEbar/review-sentiment/internal/database"
	apperrors "github.com/ZanzyTHEbar/review-sentiment/internal/errors"
	"github.com/ZanzyTHEbar/review-sentiment/internal/lexicon"
	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
	"github.com/ZanzyTHEbar/review-sentiment/internal/ratelimit"
	"github.com/ZanzyTHEbar/review-sentiment/internal/security"
	"github.com/ZanzyTHEbar/review-sentiment/internal/server"
	"github.com/ZanzyTHEbar/review-sentiment/internal/service"
)

// App owns every long-lived component of the service
type App struct {
	Config  *config.Config
	Logger  *monitoring.Logger
	Metrics *monitoring.Metrics
	DB      *database.DB
	Corpus  *database.CorpusService
	Holder  *service.ModelHolder
	Service *service.Service
	Cache   *cache.Cache
	Redis   *ratelimit.RedisClient
	Limiter *ratelimit.RateLimiter
	Server  *server.Server
}

// LoadLexicon returns the lexicon override at path, or the built-in one
func LoadLexicon(path string) (*lexicon.Lexicon, error) {
	if path == "" {
		return lexicon.New(lexicon.DefaultDefinition())
	}
	return lexicon.LoadFile(path)
}

// HolderConfig maps the model settings onto the training pipeline
func HolderConfig(cfg *config.Config) service.HolderConfig {
	hc := service.DefaultHolderConfig()
	hc.Train.Tokenizer = classifier.TokenizerConfig{
		StripAccents:    cfg.StripAccents,
		RemoveStopWords: cfg.RemoveStopWords,
	}
	hc.Train.SVM.C = cfg.ModelC
	hc.Train.SVM.Epochs = cfg.ModelEpochs
	hc.Train.TestSplit = cfg.TestSplit
	hc.Retry.RetryableErrors = database.IsTransient
	return hc
}

// OpenCorpus opens the corpus database under the data directory
func OpenCorpus(cfg *config.Config) (*database.DB, *database.CorpusService, error) {
	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		return nil, nil, apperrors.NewStorageError("failed to open corpus database", err)
	}
	return db, database.NewCorpusService(database.NewRepository(db)), nil
}

// New wires the whole service. Close must be called to release it.
func New(cfg *config.Config, logger *monitoring.Logger) (*App, error) {
	lx, err := LoadLexicon(cfg.LexiconFile)
	if err != nil {
		return nil, apperrors.NewConfigurationError("invalid LEXICON_FILE", err)
	}

	db, corpus, err := OpenCorpus(cfg)
	if err != nil {
		return nil, err
	}

	prom := monitoring.NewPrometheus()
	metrics := monitoring.NewMetrics().WithPrometheus(prom)

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("Redis unavailable, continuing with in-memory rate limiting", "addr", cfg.RedisAddr, "error", err)
	}

	limits := ratelimit.DefaultConfig()
	limits.IPLimit = cfg.RateLimitPerMin
	limiter := ratelimit.NewRateLimiter(redisClient, limits, metrics)

	holder := service.NewModelHolder(corpus, HolderConfig(cfg), classifier.NewVaderClassifier(), metrics, logger)
	svc := service.NewService(analysis.NewAnalyzer(lx), holder, service.NewHistory(cfg.HistorySize), metrics, logger)
	appCache := cache.NewCache(cfg.CacheTTL)

	sec := security.NewSecurityMiddleware(security.SecurityConfig{
		MaxTextLength:  cfg.MaxTextLength,
		MaxBatchSize:   cfg.MaxBatchSize,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := server.New(server.Options{
		Service:         svc,
		Corpus:          corpus,
		DB:              db,
		Cache:           appCache,
		Limiter:         limiter,
		Security:        sec,
		Metrics:         metrics,
		Prometheus:      prom,
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins(),
		EnableHSTS:      cfg.EnableHSTS,
		EnableProfiling: cfg.EnableProfiling,
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		DB:      db,
		Corpus:  corpus,
		Holder:  holder,
		Service: svc,
		Cache:   appCache,
		Redis:   redisClient,
		Limiter: limiter,
		Server:  srv,
	}, nil
}

// Bootstrap seeds an empty corpus from TRAINING_CSV and trains on whatever
// the corpus holds. A failed training run is logged and the baseline keeps
// serving.
func (a *App) Bootstrap(ctx context.Context) error {
	count, err := a.Corpus.Repository().Count(ctx)
	if err != nil {
		return err
	}

	if count == 0 && a.Config.TrainingCSV != "" {
		f, err := os.Open(a.Config.TrainingCSV)
		if err != nil {
			return apperrors.NewConfigurationError("cannot open TRAINING_CSV", err)
		}
		defer f.Close()

		result, err := a.Corpus.ImportCSV(ctx, f, "csv")
		if err != nil {
			return fmt.Errorf("failed to seed corpus: %w", err)
		}
		count = result.Imported
	}

	if count == 0 {
		a.Logger.SystemLogger("model", "corpus empty, serving baseline classifier")
		return nil
	}

	if _, err := a.Holder.Train(ctx); err != nil {
		a.Logger.Warn("Initial training failed, serving baseline classifier", "error", err)
	}
	return nil
}

// Close releases every resource in reverse order of creation
func (a *App) Close() {
	a.Cache.Close()
	a.Limiter.Close()
	apperrors.SafeClose(a.Redis, "redis")
	apperrors.SafeClose(a.DB, "database")
}
