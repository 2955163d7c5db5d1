package commands

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/server"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the measurement tools over MCP on stdin/stdout",
		Long: "Serve the measurement tools over the Model Context Protocol.\n" +
			"Configure it in your MCP client; logs go to stderr and LOG_FILE.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := config.NewMeasurer(cfg, logger)
			if err != nil {
				return err
			}

			server.Version = Version
			srv := server.New(
				server.WithMeasurer(m),
				server.WithMarkerWidth(cfg.MarkerWidthCM),
				server.WithLogger(logger),
			)

			logger.Debugf("MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)
			return srv.Run()
		},
	}
}
