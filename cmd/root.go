package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/logger"
)

const (
	app = "resume-screener"
)

type Config struct {
	Listen      string        `mapstructure:"listen"`
	Port        string        `mapstructure:"port"`
	UploadsDir  string        `mapstructure:"uploads-dir"`
	CORSOrigins []string      `mapstructure:"cors-origins"`
	Store       *StoreConfig  `mapstructure:"store"`
	Oracle      *OracleConfig `mapstructure:"oracle"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type OracleConfig struct {
	Provider     string        `mapstructure:"provider"`
	APIURL       string        `mapstructure:"api-url"`
	Model        string        `mapstructure:"model"`
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxTokens    int           `mapstructure:"max-tokens"`
	MaxRetries   int           `mapstructure:"max-retries"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-screener parses uploaded resumes and ranks candidates against a job description",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"oracle.api-key":      "LLM_API_KEY",
		"oracle.api-key-file": "LLM_API_KEY_FILE",
		"oracle.api-url":      "LLM_API_URL",
		"oracle.model":        "LLM_MODEL",
		"oracle.provider":     "LLM_PROVIDER",
		"store.dsn":           "DATABASE_URL",
		"port":                "PORT",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("listen", ":5000")
	viper.SetDefault("uploads-dir", "uploads")
	viper.SetDefault("cors-origins", []string{"http://localhost:8501", "http://127.0.0.1:8501"})
	viper.SetDefault("store.driver", "csv")
	viper.SetDefault("store.path", "resumes.csv")
	viper.SetDefault("oracle.provider", "openai")
	viper.SetDefault("oracle.timeout", "60s")
	viper.SetDefault("oracle.max-tokens", 300)
	viper.SetDefault("oracle.max-retries", 2)
	viper.SetDefault("oracle.max-log-length", 200)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() error {
	// Real environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return viper.ReadInConfig()
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)

	// The config file is optional; defaults and env cover a local run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return nil
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Store == nil {
		config.Store = &StoreConfig{}
	}
	if config.Oracle == nil {
		config.Oracle = &OracleConfig{}
	}

	// PORT applies unless --listen was given explicitly.
	if port := strings.TrimSpace(config.Port); port != "" && !listenFlagChanged() {
		config.Listen = ":" + strings.TrimPrefix(port, ":")
	}

	return config, nil
}

func listenFlagChanged() bool {
	flag := serveCmd.Flags().Lookup("listen")
	return flag != nil && flag.Changed
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}
