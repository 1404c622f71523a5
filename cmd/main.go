package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"awsview/awsd"
	"awsview/configuration"
	"awsview/errors"
	"awsview/logger"
	"awsview/presenter"
	"awsview/server"
)

const (
	packageName = "main"

	Version = "1.0.0"
)

// app carries what every subcommand needs once the root command has loaded
// the configuration.
type app struct {
	configFile string
	cfg        *configuration.Config
	logger     *zap.Logger

	newFetcher func(cfg *configuration.Config) server.InstanceFetcher
}

func newApp() *app {
	return &app{
		logger: zap.NewNop(),
		newFetcher: func(cfg *configuration.Config) server.InstanceFetcher {
			return awsd.NewFetcher(cfg)
		},
	}
}

func main() {
	a := newApp()
	err := newRootCmd(a).Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "awsview",
		Short: "Dashboard of EC2 instances grouped by environment",
		Long: `awsview lists the EC2 instances of every region an AWS account can see,
grouped by their env tag and sorted by their role tag, as an HTML page.

Accounts are the sections of the keys file:

  [production]
  key = AKIA...
  secret = ...`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "path to a .env file with settings (default .env)")
	flags.String("keys-file", "", "keys file with one section per account (default keys.cfg)")
	flags.String("templates", "", "directory holding layout.html, env.html and menu.html")
	flags.String("log-level", "", "debug, info, warn or error (default info)")
	bindFlag(flags.Lookup("keys-file"), "KEYS_FILE")
	bindFlag(flags.Lookup("templates"), "TEMPLATE_DIR")
	bindFlag(flags.Lookup("log-level"), "LOG_LEVEL")

	root.AddCommand(
		newServeCmd(a),
		newCGICmd(a),
		newRenderCmd(a),
		newSectionsCmd(a),
	)
	return root
}

// setup loads the configuration and starts logging at the configured level.
func (a *app) setup() error {
	if a.configFile != "" {
		viper.SetConfigFile(a.configFile)
	}

	cfg, err := configuration.Initialize()
	if err != nil {
		return err
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return errors.New(errors.ErrConfigInvalid, "Failed to initialize logger",
			map[string]interface{}{
				"operation": "logger_init",
				"log_level": cfg.LogLevel,
			}, err)
	}

	a.cfg = cfg
	a.logger = logger.Named(packageName)
	a.logger.Debug("Configuration loaded successfully",
		zap.String("operation", "config_load"),
		zap.String("keys_file", cfg.KeysFile),
		zap.String("template_dir", cfg.TemplateDir),
		zap.String("aws_region", cfg.AWSRegion),
	)
	return nil
}

// handler builds the dashboard handler from the loaded configuration.
func (a *app) handler() (*server.Handler, error) {
	p, err := presenter.New(a.cfg.TemplateDir)
	if err != nil {
		return nil, err
	}
	return server.New(a.cfg, a.newFetcher(a.cfg), p, a.logger), nil
}
