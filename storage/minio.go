package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"EchoFM/config"
	"EchoFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	minioCfg    *config.Config
)

// InitMinio 初始化 MinIO 客户端
func InitMinio(cfg *config.Config) error {
	logger.Info("[Minio] 正在连接 MinIO 服务器",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 检查存储桶是否存在，不存在则创建
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("[Minio] 成功创建存储桶", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	minioCfg = cfg
	logger.Info("[Minio] MinIO 客户端初始化成功")
	return nil
}

// GetMinioClient 获取 MinIO 客户端实例
func GetMinioClient() *minio.Client {
	return minioClient
}

// PublicURL resolves a stored object path to a publicly reachable URL.
// The songs bucket is served read-only; the URL shape mirrors what the
// hosted storage provider hands out.
func PublicURL(cfg *config.Config, objectPath string) string {
	if objectPath == "" {
		return ""
	}
	base := strings.TrimSuffix(cfg.MinioPublicURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, cfg.MinioBucket, strings.TrimPrefix(objectPath, "/"))
}

// UploadObject 上传对象到歌曲存储桶
func UploadObject(ctx context.Context, objectPath, contentType string, reader io.Reader, size int64) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	_, err := minioClient.PutObject(ctx, minioCfg.MinioBucket, objectPath, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("上传对象失败 %s: %w", objectPath, err)
	}
	return nil
}

// RemoveObject 删除歌曲存储桶中的对象
func RemoveObject(ctx context.Context, objectPath string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	if err := minioClient.RemoveObject(ctx, minioCfg.MinioBucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除对象失败 %s: %w", objectPath, err)
	}
	return nil
}

// ContentTypeFor 根据对象路径推断Content-Type
func ContentTypeFor(objectPath string) string {
	switch {
	case strings.HasSuffix(objectPath, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(objectPath, ".flac"):
		return "audio/flac"
	case strings.HasSuffix(objectPath, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(objectPath, ".jpg"), strings.HasSuffix(objectPath, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(objectPath, ".png"):
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
