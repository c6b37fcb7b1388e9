package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zoynulabedin/snowlightv2-sub000/config"
	"github.com/zoynulabedin/snowlightv2-sub000/logger"
)

var rootCmd = &cobra.Command{
	Use:   "snowlight",
	Short: "Snowlight plays tracks and videos from a shared playback session.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// initLogger starts the global logger from cfg. quiet keeps log lines off
// the terminal for interactive commands.
func initLogger(cfg *config.Config, quiet bool) {
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
		Quiet:      quiet,
	})
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
