package configuration

import (
	stderrors "errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"awsview/errors"
)

const (
	packageName = "configuration"
)

// Config holds the application configuration
type Config struct {
	ListenAddr   string
	KeysFile     string
	TemplateDir  string
	PageTitle    string
	StaticURL    string
	AWSRegion    string
	EndpointURL  string
	LogLevel     string
	MaxRetries   int
	FetchWorkers int
	FetchTimeout int
}

// Initialize sets up the configuration system. Values come from, in order of
// precedence, bound command line flags, the environment, an optional .env
// file and the defaults below.
func Initialize() (*Config, error) {
	logger := zap.L().With(
		zap.String("package", packageName),
		zap.String("function", "Initialize"),
	)

	// Set default values
	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("KEYS_FILE", "keys.cfg")
	viper.SetDefault("TEMPLATE_DIR", "")
	viper.SetDefault("PAGE_TITLE", "AWS View")
	viper.SetDefault("STATIC_URL", "/static/")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("ENDPOINT_URL", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_RETRIES", 3)
	viper.SetDefault("FETCH_CONCURRENCY", 4)
	viper.SetDefault("FETCH_TIMEOUT_SECONDS", 60)

	// Configure Viper to read from environment
	viper.AutomaticEnv()

	// Read from .env file unless a caller already pointed viper elsewhere.
	// Only the implicit .env may be missing.
	explicit := viper.ConfigFileUsed() != ""
	if !explicit {
		viper.SetConfigFile(".env")
	}
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); explicit || (!ok && !isNotExist(err)) {
			return nil, errors.New(errors.ErrConfigParse, "error reading config file",
				map[string]interface{}{
					"config_file": viper.ConfigFileUsed(),
				}, err)
		}
		logger.Debug("No .env file found, using environment variables and defaults",
			zap.String("operation", "config_loading"),
		)
	}

	keysFile := viper.GetString("KEYS_FILE")
	if keysFile == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid KEYS_FILE",
			map[string]interface{}{
				"config_key": "KEYS_FILE",
			}, nil)
	}

	region := viper.GetString("AWS_REGION")
	if region == "" {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid AWS_REGION",
			map[string]interface{}{
				"config_key": "AWS_REGION",
			}, nil)
	}

	maxRetries := viper.GetInt("MAX_RETRIES")
	if maxRetries < 0 {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid MAX_RETRIES",
			map[string]interface{}{
				"config_key": "MAX_RETRIES",
				"value":      maxRetries,
			}, nil)
	}

	workers := viper.GetInt("FETCH_CONCURRENCY")
	if workers <= 0 {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid FETCH_CONCURRENCY",
			map[string]interface{}{
				"config_key": "FETCH_CONCURRENCY",
				"value":      workers,
			}, nil)
	}

	timeout := viper.GetInt("FETCH_TIMEOUT_SECONDS")
	if timeout <= 0 {
		return nil, errors.New(errors.ErrConfigInvalid, "invalid FETCH_TIMEOUT_SECONDS",
			map[string]interface{}{
				"config_key": "FETCH_TIMEOUT_SECONDS",
				"value":      timeout,
			}, nil)
	}

	config := &Config{
		ListenAddr:   viper.GetString("LISTEN_ADDR"),
		KeysFile:     keysFile,
		TemplateDir:  viper.GetString("TEMPLATE_DIR"),
		PageTitle:    viper.GetString("PAGE_TITLE"),
		StaticURL:    viper.GetString("STATIC_URL"),
		AWSRegion:    region,
		EndpointURL:  viper.GetString("ENDPOINT_URL"),
		LogLevel:     viper.GetString("LOG_LEVEL"),
		MaxRetries:   maxRetries,
		FetchWorkers: workers,
		FetchTimeout: timeout,
	}

	logger.Debug("Configuration loaded successfully",
		zap.String("operation", "config_complete"),
		zap.String("keys_file", config.KeysFile),
		zap.String("aws_region", config.AWSRegion),
		zap.Int("fetch_concurrency", config.FetchWorkers),
	)
	return config, nil
}

// FetchDeadline is the upper bound for one complete multi-region listing.
func (c *Config) FetchDeadline() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

func isNotExist(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist)
}
