package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"

	"github.com/zoynulabedin/snowlightv2-sub000/config"
	"github.com/zoynulabedin/snowlightv2-sub000/media"
	"github.com/zoynulabedin/snowlightv2-sub000/storage"
)

var (
	minioPrefix  string
	minioPresign string
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO媒体存储桶管理",
	Long:  `列出媒体存储桶中的音频文件，或为对象键生成播放用的预签名URL。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, err := storage.NewMinioClient(ctx, cfg)
		if err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		if minioPresign != "" {
			resolver := storage.NewMinioResolver(client, cfg.MinioBucket, cfg.MediaURLExpiry)
			u, err := resolver.ResolveURL(ctx, minioPresign)
			if err != nil {
				log.Fatalf("生成预签名URL失败: %v", err)
			}
			fmt.Println(u)
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Key", "Size", "Modified"})
		var count int
		for obj := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{Prefix: minioPrefix, Recursive: true}) {
			if obj.Err != nil {
				log.Fatalf("列出文件失败: %v", obj.Err)
			}
			if !media.IsAudioFile(obj.Key) {
				continue
			}
			t.AppendRow(table.Row{obj.Key, obj.Size, obj.LastModified.Format(time.RFC3339)})
			count++
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d files", count)})
		t.SetStyle(table.StyleLight)
		t.Render()
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioCmd.Flags().StringVar(&minioPresign, "presign", "", "为指定对象键生成预签名URL")

	minioCmd.Example = `  # 列出所有音频文件
  snowlight minio

  # 按前缀过滤文件
  snowlight minio -p "music/"

  # 生成预签名URL
  snowlight minio --presign music/track.mp3`
}
