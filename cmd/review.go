package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobwright/applypilot/internal/automator"
	"github.com/jobwright/applypilot/internal/browser"
	"github.com/jobwright/applypilot/internal/logger"
	"github.com/jobwright/applypilot/internal/model"
	"github.com/jobwright/applypilot/internal/store"
)

const (
	PromptSubmit = "Submit"
	PromptSkip   = "Skip"
	PromptBack   = "back"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Confirm or skip applications waiting in ready_to_submit",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func review(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}
	if config == nil || config.DatabaseURL == "" {
		logger.Fatal("database url is required")
	}
	if len(config.Users) == 0 {
		logger.Fatal("at least one user is required under users")
	}

	st, err := store.Connect(ctx, config.DatabaseURL)
	if err != nil {
		logger.Fatal("connecting to the database", zap.Error(err))
	}
	defer st.Close()

	fieldResolver, err := newFieldResolver(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building field resolver", zap.Error(err))
	}

	cache, err := newAnswerCache(config.RedisURL)
	if err != nil {
		logger.Fatal("connecting to redis", zap.Error(err))
	}

	// Review runs attended, so the browser stays visible.
	engine := browser.NewPlaywright(false, logger)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("closing browser engine", zap.Error(err))
		}
	}()

	submitter := automator.New(engine, st, fieldResolver, cache, logger)

	for _, userID := range config.Users {
		if err := reviewUser(ctx, st, submitter, userID, logger); err != nil {
			logger.Fatal("review failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// reviewUser walks the user's pending applications one by one until the
// list is empty or back is chosen.
func reviewUser(ctx context.Context, st store.Store, submitter *automator.Automator, userID string, logger *zap.Logger) error {
	for {
		records, err := st.ListByStatus(ctx, userID, model.StatusReadyToSubmit)
		if err != nil {
			return fmt.Errorf("list pending applications: %w", err)
		}
		if len(records) == 0 {
			logger.Info("nothing to review", zap.String("user_id", userID))
			return nil
		}

		items := make([]string, 0, len(records)+1)
		for _, record := range records {
			items = append(items, fmt.Sprintf("%s / %s / %s", record.JobID, record.Company, record.ATSType))
		}

		recordPrompt := promptui.Select{
			Label: fmt.Sprintf("Pending applications for %s, choose one and press ENTER", userID),
			Items: append(items, PromptBack),
		}

		_, selected, err := recordPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		jobID := strings.Split(selected, " ")[0]

		actionPrompt := promptui.Select{
			Label: "Submit this application?",
			Items: []string{PromptSubmit, PromptSkip, PromptBack},
		}

		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptSubmit:
			outcome, err := submitter.ApplyToJob(ctx, userID, jobID, model.ModeAuto)
			if err != nil {
				return fmt.Errorf("submit %s: %w", jobID, err)
			}
			logger.Info("application submitted",
				zap.String("user_id", userID),
				zap.String("job_id", jobID),
				zap.String("status", string(outcome.Status)),
			)
		case PromptSkip:
			logger.Info("left pending", zap.String("job_id", jobID))
		case PromptBack:
			continue
		}
	}
}
