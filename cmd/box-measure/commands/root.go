package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/log"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	envFile  string
	logLevel string

	cfg    *config.Config
	logger *logrus.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:          "box-measure",
		Short:        "Estimate box dimensions from a photo with a reference marker",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				c.LogLevel = logLevel
			}
			cfg = c
			logger = log.NewLogger(log.Options{
				Level: cfg.LogLevel,
				File:  cfg.LogFile,
				Env:   cfg.Env,
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(serveCmd(), mcpCmd(), measureCmd(), versionCmd())
	return root.Execute()
}
