package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// StorageType is the flavour of S3-compatible service behind the bucket.
type StorageType string

const (
	StorageTypeR2           StorageType = "r2"
	StorageTypeS3           StorageType = "s3"
	StorageTypeS3Compatible StorageType = "s3compatible"
)

// Mirrored posters never change under a key.
const posterCacheControl = "public, max-age=31536000, immutable"

// S3Config holds the resolved settings of an S3-compatible poster bucket.
type S3Config struct {
	Type      StorageType
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	PublicURL string // CDN or r2.dev prefix; defaults to the path-style bucket URL
}

// S3Storage is a PosterStore backed by one S3-compatible bucket.
type S3Storage struct {
	client    *s3.Client
	bucket    string
	storeType StorageType
	publicURL string
}

// NewS3Storage creates a path-style S3 client for cfg.Bucket.
func NewS3Storage(cfg *S3Config) (*S3Storage, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
		if cfg.Type == StorageTypeR2 {
			region = "auto"
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpointURL := scheme + "://" + normalizeEndpoint(cfg.Endpoint)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Storage{
		client: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		}),
		bucket:    cfg.Bucket,
		storeType: cfg.Type,
		publicURL: publicBase(cfg.PublicURL, endpointURL, cfg.Bucket),
	}, nil
}

// normalizeEndpoint strips the scheme and any path from endpoint.
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}
	return endpoint
}

func publicBase(publicURL, endpointURL, bucket string) string {
	if publicURL != "" {
		return strings.TrimSuffix(publicURL, "/")
	}
	return endpointURL + "/" + bucket
}

// EnsureBucket creates the poster bucket when it is missing. R2 buckets
// cannot be created through the S3 API and must already exist.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err == nil {
		return nil
	}
	if s.storeType == StorageTypeR2 {
		return fmt.Errorf("bucket %s does not exist, please create it in R2 dashboard", s.bucket)
	}
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// PutPoster uploads p under its content key unless that key already exists.
func (s *S3Storage) PutPoster(ctx context.Context, p Poster) (string, string, error) {
	key := PosterKey(p.Data, p.Format)

	exists, err := s.exists(ctx, key)
	if err != nil {
		return "", "", err
	}
	if !exists {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(p.Data),
			ContentLength: aws.Int64(int64(len(p.Data))),
			ContentType:   aws.String(ContentType(p.Format)),
			CacheControl:  aws.String(posterCacheControl),
			Metadata:      map[string]string{"movie-id": p.MovieID},
		})
		if err != nil {
			return "", "", fmt.Errorf("failed to upload poster %s: %w", key, err)
		}
	}
	return key, s.URL(key), nil
}

// URL returns the public URL of key.
func (s *S3Storage) URL(key string) string {
	return s.publicURL + "/" + key
}

func (s *S3Storage) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) || strings.Contains(err.Error(), "StatusCode: 404") {
		return false, nil
	}
	return false, fmt.Errorf("failed to check poster %s: %w", key, err)
}
