package cmd

import (
	"context"
	"fmt"
	"log"

	"EchoFM/config"
	"EchoFM/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看MinIO歌曲存储桶中的对象，验证存储服务连接。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		// 初始化MinIO客户端
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		client := storage.GetMinioClient()
		fmt.Printf("\n列出存储桶中的文件 (前缀: %s)...\n", minioPrefix)

		ctx := context.Background()
		var count int
		var total int64
		for object := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				log.Fatalf("列出文件失败: %v", object.Err)
			}
			fmt.Printf("  %-60s %10d bytes\n", object.Key, object.Size)
			count++
			total += object.Size
		}

		fmt.Printf("\n共 %d 个对象，%d 字节\n", count, total)
		fmt.Println("MinIO操作完成！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")

	minioCmd.Example = `  # 列出所有文件
  echofm minio

  # 按前缀过滤文件
  echofm minio -p "songs/"`
}
