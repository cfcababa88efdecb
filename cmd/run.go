package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/automator"
	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/candidates"
	"github.com/jobwright/applypilot/internal/logger"
	"github.com/jobwright/applypilot/internal/orchestrator"
	"github.com/jobwright/applypilot/internal/resolver"
	"github.com/jobwright/applypilot/internal/resolver/gemini"
	"github.com/jobwright/applypilot/internal/secrets"
	"github.com/jobwright/applypilot/internal/store"
)

const (
	defaultLoopInterval = 30 * time.Minute
	defaultPauseMin     = 5 * time.Second
	defaultPauseMax     = 15 * time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the applypilot engine and its scheduling loop",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("headless", "", true, "run the browser headless")

	viper.BindPFlag("browser.headless", runCmd.Flags().Lookup("headless"))
}

// run is the main command for the cli.
func run(_ *cobra.Command) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the applypilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}
	if config.DatabaseURL == "" {
		logger.Fatal("database url is required",
			zap.String("hint", "set DATABASE_URL or the 'database-url' key in the configuration file"),
		)
	}
	if config.Source == nil || config.Source.APIURL == "" {
		logger.Fatal("candidate source api url is required under source.api-url")
	}
	if len(config.Users) == 0 {
		logger.Fatal("at least one user is required under users")
	}

	st, err := store.Connect(ctx, config.DatabaseURL)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer st.Close()

	token, err := secrets.Load(secrets.Source{
		Name: "candidate source token",
		File: config.Source.TokenFile,
	})
	if err != nil {
		logger.Fatal(
			"loading candidate source token",
			zap.Error(err),
			zap.String("hint", "set SOURCE_TOKEN_FILE environment variable or the 'source.token-file' key in the configuration file"),
		)
	}
	source := candidates.New(config.Source.APIURL, token, logger)

	fieldResolver, err := newFieldResolver(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building field resolver", zap.Error(err))
	}

	cache, err := newAnswerCache(config.RedisURL)
	if err != nil {
		logger.Fatal("connecting to redis", zap.Error(err))
	}

	headless := true
	if config.Browser != nil {
		headless = config.Browser.Headless
	}
	engine := browser.NewPlaywright(headless, logger)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("closing browser engine", zap.Error(err))
		}
	}()

	submitter := automator.New(engine, st, fieldResolver, cache, logger)

	o := orchestrator.New(&orchestrator.Deps{
		Store:     st,
		Source:    source,
		Submitter: submitter,
		Logger:    logger,
		PauseMin:  pauseBound(config, func(l *LoopConfig) int { return l.PauseMinSeconds }, defaultPauseMin),
		PauseMax:  pauseBound(config, func(l *LoopConfig) int { return l.PauseMaxSeconds }, defaultPauseMax),
	})

	started := startUsers(ctx, o, config.Users, logger)
	if started == 0 {
		logger.Fatal("no sessions started, nothing to schedule")
	}

	interval := defaultLoopInterval
	parallelism := 0
	if config.Loop != nil {
		if config.Loop.IntervalMinutes > 0 {
			interval = time.Duration(config.Loop.IntervalMinutes) * time.Minute
		}
		parallelism = config.Loop.Parallelism
	}

	loop := orchestrator.NewLoop(o, logger, interval, parallelism)
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduling loop failed", zap.Error(err))
	}

	// Shutdown: end every session so persisted records are not left open.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, userID := range o.ActiveUsers() {
		if _, err := o.Stop(shutdownCtx, userID); err != nil {
			logger.Warn("stopping session", zap.String("user_id", userID), zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}

// startUsers starts a session per configured user and reports how many
// actually came up. Precondition and scan failures are logged per user.
func startUsers(ctx context.Context, o *orchestrator.Orchestrator, users []string, logger *zap.Logger) int {
	started := 0
	for _, userID := range users {
		result, err := o.Start(ctx, userID)
		if err != nil {
			var precondition *orchestrator.PreconditionError
			var scanErr *orchestrator.ScanError

			switch {
			case errors.As(err, &precondition):
				logger.Warn("skipping user, profile not ready",
					zap.String("user_id", userID),
					zap.Strings("missing_fields", precondition.MissingFields),
				)
			case errors.As(err, &scanErr):
				// Session is up, the next tick retries the scan.
				logger.Warn("initial scan failed",
					zap.String("user_id", userID),
					zap.Error(scanErr),
				)
				started++
			default:
				logger.Error("starting session", zap.String("user_id", userID), zap.Error(err))
			}
			continue
		}

		logger.Info("session started",
			zap.String("user_id", userID),
			zap.Int("qualified_jobs", result.Qualified),
		)
		started++
	}
	return started
}

func newFieldResolver(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (resolver.FieldResolver, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required under ai.gemini")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewResolver(generator, genLogger, cfg.Gemini.MaxLogLength), nil
}

// newAnswerCache builds the screening-answer cache: redis when a URL is
// configured, process memory otherwise.
func newAnswerCache(redisURL string) (resolver.AnswerCache, error) {
	if redisURL == "" {
		return resolver.NewMemoryCache(), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return resolver.NewRedisCache(redis.NewClient(opts)), nil
}

func pauseBound(config *Config, pick func(*LoopConfig) int, fallback time.Duration) time.Duration {
	if config.Loop == nil {
		return fallback
	}
	if seconds := pick(config.Loop); seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
