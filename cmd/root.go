package cmd

import (
	"fmt"
	"os"

	"inventory-connector/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "inventory-connector",
	Short: "Inventory Connector Service",
	Long: `Inventory Connector imports heterogeneous inventory data from remote
HTTP APIs into a relational store, deriving a per-source field schema on
every synchronization pass.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// CLI errors go through the standard logger in console format so
		// timestamps stay human readable.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
