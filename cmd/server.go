package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zoynulabedin/snowlightv2-sub000/config"
	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Snowlight服务器",
	Long:  `启动HTTP服务器，提供播放会话API和媒体元素的WebSocket连接`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		initLogger(cfg, false)
		defer logger.Sync()

		if err := server.Start(cfg); err != nil {
			logger.Fatal("server failed", logger.ErrorField(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
