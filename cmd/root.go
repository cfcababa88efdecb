package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "applypilot"
)

type Config struct {
	DatabaseURL string         `mapstructure:"database-url"`
	RedisURL    string         `mapstructure:"redis-url"`
	Users       []string       `mapstructure:"users"`
	Source      *SourceConfig  `mapstructure:"source"`
	Browser     *BrowserConfig `mapstructure:"browser"`
	Loop        *LoopConfig    `mapstructure:"loop"`
	AI          *AIConfig      `mapstructure:"ai"`
}

type SourceConfig struct {
	APIURL    string `mapstructure:"api-url"`
	TokenFile string `mapstructure:"token-file"`
}

type BrowserConfig struct {
	Headless bool `mapstructure:"headless"`
}

type LoopConfig struct {
	IntervalMinutes int `mapstructure:"interval-minutes"`
	Parallelism     int `mapstructure:"parallelism"`
	PauseMinSeconds int `mapstructure:"pause-min-seconds"`
	PauseMaxSeconds int `mapstructure:"pause-max-seconds"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "applypilot scans job postings and automates application submissions per user policy",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Local development convenience; a missing .env is fine.
	_ = godotenv.Load()

	if err := viper.BindEnv("database-url", "DATABASE_URL"); err != nil {
		log.Fatalf("binding DATABASE_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("redis-url", "REDIS_URL"); err != nil {
		log.Fatalf("binding REDIS_URL environment variable: %v", err)
	}
	if err := viper.BindEnv("source.token-file", "SOURCE_TOKEN_FILE"); err != nil {
		log.Fatalf("binding SOURCE_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is applypilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run and review. Skip otherwise.
	if runCmd.CalledAs() == "" && reviewCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
