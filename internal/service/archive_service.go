package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"shikkha_backend/internal/config"
	"shikkha_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ArchiveProvider 试卷快照与提交回执的对象存储
type ArchiveProvider interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalArchiveProvider 本地存储实现
type LocalArchiveProvider struct {
	Root string
}

func (p *LocalArchiveProvider) path(key string) string {
	return filepath.Join(p.Root, filepath.FromSlash(key))
}

func (p *LocalArchiveProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	dst := p.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, reader)
	return err
}

func (p *LocalArchiveProvider) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(p.path(key))
}

func (p *LocalArchiveProvider) Delete(ctx context.Context, key string) error {
	return os.Remove(p.path(key))
}

// MinioArchiveProvider MinIO存储实现
type MinioArchiveProvider struct {
	Bucket string
	Client *minio.Client
}

func NewMinioArchiveProvider(cfg *config.StorageConfig) (*MinioArchiveProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioArchiveProvider{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (p *MinioArchiveProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := p.Client.PutObject(ctx, p.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (p *MinioArchiveProvider) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return p.Client.GetObject(ctx, p.Bucket, key, minio.GetObjectOptions{})
}

func (p *MinioArchiveProvider) Delete(ctx context.Context, key string) error {
	return p.Client.RemoveObject(ctx, p.Bucket, key, minio.RemoveObjectOptions{})
}

// OSSArchiveProvider 阿里云OSS存储实现
type OSSArchiveProvider struct {
	Bucket *oss.Bucket
}

func NewOSSArchiveProvider(cfg *config.StorageConfig) (*OSSArchiveProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, err
	}
	return &OSSArchiveProvider{Bucket: bucket}, nil
}

func (p *OSSArchiveProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	return p.Bucket.PutObject(key, reader, oss.ContentType(contentType))
}

func (p *OSSArchiveProvider) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return p.Bucket.GetObject(key)
}

func (p *OSSArchiveProvider) Delete(ctx context.Context, key string) error {
	return p.Bucket.DeleteObject(key)
}

// ArchiveService 以 JSON 形式归档不可变记录
type ArchiveService struct {
	Provider ArchiveProvider
}

func NewArchiveService(cfg *config.Config) *ArchiveService {
	var provider ArchiveProvider
	switch cfg.Storage.Type {
	case "minio":
		p, err := NewMinioArchiveProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("minio unavailable, falling back to local archive", zap.Error(err))
		} else {
			provider = p
		}
	case "oss":
		p, err := NewOSSArchiveProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("oss unavailable, falling back to local archive", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalArchiveProvider{Root: cfg.Storage.LocalPath}
	}

	return &ArchiveService{Provider: provider}
}

func (s *ArchiveService) PutJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Provider.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json")
}

func (s *ArchiveService) GetJSON(ctx context.Context, key string, v interface{}) error {
	rc, err := s.Provider.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()
	return json.NewDecoder(rc).Decode(v)
}

func (s *ArchiveService) Delete(ctx context.Context, key string) error {
	return s.Provider.Delete(ctx, key)
}

func ExamSnapshotKey(examID string, version int64) string {
	return fmt.Sprintf("exams/%s/snapshot-%d.json", examID, version)
}

func SubmissionReceiptKey(examID, submissionID string) string {
	return fmt.Sprintf("submissions/%s/%s.json", examID, submissionID)
}
