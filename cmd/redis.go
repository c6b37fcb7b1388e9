package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoynulabedin/snowlightv2-sub000/cache"
	"github.com/zoynulabedin/snowlightv2-sub000/config"
	"github.com/zoynulabedin/snowlightv2-sub000/db"
)

var redisSession string

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis连接测试",
	Long:  `测试Redis连接是否成功，并进行基本读写操作。使用 --session 查看某个会话的镜像快照。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始测试Redis连接...")

		cfg := config.Load()
		fmt.Printf("Redis配置: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("无法连接到Redis: %v", err)
		}
		defer func() {
			if err := db.CloseRedis(); err != nil {
				log.Printf("关闭Redis连接时发生错误: %v", err)
			}
		}()
		fmt.Println("Redis连接成功！")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("开始测试Redis基本操作...")
		if err := db.TestRedis(ctx); err != nil {
			log.Fatalf("Redis操作测试失败: %v", err)
		}
		fmt.Println("Redis基本操作测试成功！")

		if redisSession == "" {
			return
		}
		mirror := cache.NewSessionCache(db.RedisClient, cfg.SessionTTL)
		state, err := mirror.Load(ctx, redisSession)
		if err != nil {
			log.Fatalf("读取会话失败: %v", err)
		}
		if state == nil {
			fmt.Printf("会话 %s 没有镜像快照\n", redisSession)
			return
		}
		current := "-"
		if state.CurrentTrack != nil {
			current = state.CurrentTrack.Title
		}
		fmt.Printf("会话 %s: 当前曲目 %s, 队列 %d 首, audio=%v video=%v\n",
			redisSession, current, len(state.Queue), state.AudioVisible, state.VideoVisible)
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
	redisCmd.Flags().StringVarP(&redisSession, "session", "s", "", "显示该会话在Redis中的镜像快照")
}
