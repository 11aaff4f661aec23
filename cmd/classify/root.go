package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cloudclassify/logger"
)

var (
	logLevel string
	zlog     = zap.NewNop()
)

// NewRootCmd 创建classify根命令及子命令
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "classify",
		Short:        "Run and inspect classifier artifacts offline",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(logger.Options{Level: logLevel, Encoding: "console"})
		if err != nil {
			return err
		}
		zlog = l
		return nil
	}

	rootCmd.AddCommand(newPredictCmd(), newInspectCmd())
	return rootCmd
}
