package actions

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArtifactStore keeps generated content and returns a reference to it.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// DirStore writes artifacts under a local directory.
type DirStore struct {
	dir     string
	baseURL string
}

// NewDirStore creates a DirStore. When baseURL is set references are
// baseURL/key, otherwise the file path.
func NewDirStore(dir, baseURL string) *DirStore {
	if dir == "" {
		dir = ".leadflow/artifacts"
	}
	return &DirStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir returns the root directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Put implements ArtifactStore.
func (s *DirStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}

	path := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	if s.baseURL != "" {
		return s.baseURL + "/" + filepath.ToSlash(clean), nil
	}
	return path, nil
}

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads artifacts to a bucket.
type S3Store struct {
	client S3API
	bucket string
}

// NewS3Store creates an S3Store.
func NewS3Store(client S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Put implements ArtifactStore. The reference is an s3:// URI.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// S3Config holds the connection settings for NewS3Client.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the service URL (LocalStack, MinIO). Path-style
	// addressing is used when it is set.
	Endpoint string
}

// NewS3Client builds an S3 client from the default AWS chain plus cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if strings.TrimSpace(cfg.AccessKeyID) != "" && strings.TrimSpace(cfg.SecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
