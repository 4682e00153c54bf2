// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"fanwall-go/internal/config"
	"fanwall-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client 封装 MinIO 客户端与桶配置，通过构造注入传给各业务组件。
type Client struct {
	mc     *minio.Client
	bucket string
	public string
}

// NewClient 初始化 MinIO 客户端并确保指定的存储桶存在。
func NewClient(cfg config.MinIOConfig) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}
	log.Info("MinIO 客户端初始化成功")

	// 检查存储桶是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := mc.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := mc.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
		log.Infof("存储桶 '%s' 创建成功", cfg.BucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", cfg.BucketName)
	}

	return &Client{mc: mc, bucket: cfg.BucketName, public: strings.TrimRight(cfg.PublicBaseURL, "/")}, nil
}

// PutObject 将二进制内容写入对象存储。
func (c *Client) PutObject(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error {
	_, err := c.mc.PutObject(ctx, c.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Errorf("上传对象到 MinIO 失败, objectKey: %s, error: %v", objectKey, err)
		return err
	}
	return nil
}

// RemoveObject 删除单个对象。对象不存在时 MinIO 视为成功。
func (c *Client) RemoveObject(ctx context.Context, objectKey string) error {
	return c.mc.RemoveObject(ctx, c.bucket, objectKey, minio.RemoveObjectOptions{})
}

// PresignedGetURL 为对象生成限时签名下载链接。
func (c *Client) PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	presignedURL, err := c.mc.PresignedGetObject(ctx, c.bucket, objectKey, expiry, nil)
	if err != nil {
		log.Errorf("生成签名下载链接失败, objectKey: %s, error: %v", objectKey, err)
		return "", err
	}
	return presignedURL.String(), nil
}

// PublicURL 构造对象的公开访问地址（通常指向 CDN）。
func (c *Client) PublicURL(objectKey string) string {
	if c.public == "" {
		scheme := "http"
		if c.mc.EndpointURL().Scheme == "https" {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s/%s/%s", scheme, c.mc.EndpointURL().Host, c.bucket, objectKey)
	}
	return c.public + "/" + objectKey
}
