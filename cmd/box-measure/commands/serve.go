package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/box-measure/internal/config"
)

func serveCmd() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			fiberApp := config.NewFiber(cfg, logger)

			server, err := config.NewServer(
				config.WithFiber(fiberApp),
				config.WithLogger(logger),
				config.WithConfig(cfg),
				config.WithValidator(config.NewValidator()),
				config.WithMiddleware(),
			)
			if err != nil {
				return err
			}
			if err := server.RegisterHandler(); err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Run()
			}()

			logger.Infof("Server listening on %s", cfg.Addr())

			select {
			case err := <-errChan:
				return err
			case <-sigChan:
			}

			logger.Info("Shutting down server...")
			return server.Shutdown(shutdownTimeout)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "time allowed for in-flight requests on shutdown")
	return cmd
}
