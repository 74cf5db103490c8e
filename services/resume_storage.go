package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ResumeFileStore keeps the original uploaded resume and returns a URL for it
type ResumeFileStore interface {
	Upload(ctx context.Context, userID, filename, contentType string, data []byte) (string, error)
}

// S3ResumeStore uploads resumes to an S3 compatible bucket such as Cloudflare R2
type S3ResumeStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewS3ResumeStore(ctx context.Context, cfg StorageConfig) (*S3ResumeStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	slog.Info("Resume storage configured", "bucket", cfg.Bucket, "endpoint", cfg.Endpoint)
	return &S3ResumeStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

func resumeObjectKey(userID, filename string) string {
	return path.Join("resumes", userID, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
}

func (s *S3ResumeStore) Upload(ctx context.Context, userID, filename, contentType string, data []byte) (string, error) {
	key := resumeObjectKey(userID, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload resume: %w", err)
	}

	slog.Info("Resume uploaded", "user_id", userID, "key", key, "size", len(data))
	if s.publicURL != "" {
		return s.publicURL + "/" + key, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
