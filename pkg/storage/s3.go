package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"frameworks/pkg/logging"
)

// DefaultPresignExpiry is used when a caller asks for a zero expiry.
const DefaultPresignExpiry = 15 * time.Minute

// ErrMissingBucket is returned when neither the call nor the config names a bucket.
var ErrMissingBucket = errors.New("s3 bucket is required")

// S3Config holds configuration for the S3 client
type S3Config struct {
	Bucket    string // Fallback bucket when a call passes none
	Prefix    string // Key prefix for all operations
	Region    string // AWS region (default: us-east-1)
	Endpoint  string // Custom endpoint for S3-compatible storage (MinIO, etc.)
	AccessKey string // Static credentials; default chain when empty
	SecretKey string
}

// S3Client signs read URLs for stored replay assets. It never fetches objects itself.
type S3Client struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	config        S3Config
	logger        logging.Logger
}

// NewS3Client creates a presigning client with the given configuration.
func NewS3Client(ctx context.Context, cfg S3Config, logger logging.Logger) (*S3Client, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)

	logger.WithFields(logging.Fields{
		"bucket":   cfg.Bucket,
		"prefix":   cfg.Prefix,
		"region":   cfg.Region,
		"endpoint": cfg.Endpoint,
	}).Info("S3 presign client initialized")

	return &S3Client{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		config:        cfg,
		logger:        logger,
	}, nil
}

func (c *S3Client) fullKey(key string) string {
	if c.config.Prefix == "" {
		return key
	}
	return strings.TrimSuffix(c.config.Prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}

// PresignGet returns a time-limited GET URL for bucket/key.
// An empty bucket falls back to the configured one.
func (c *S3Client) PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if bucket == "" {
		bucket = c.config.Bucket
	}
	if bucket == "" {
		return "", ErrMissingBucket
	}
	if key == "" {
		return "", fmt.Errorf("s3 key is required")
	}
	if expires <= 0 {
		expires = DefaultPresignExpiry
	}

	fullKey := c.fullKey(key)
	req, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fullKey),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET %s/%s: %w", bucket, fullKey, err)
	}

	c.logger.WithFields(logging.Fields{
		"bucket": bucket,
		"key":    fullKey,
		"expiry": expires,
	}).Debug("Generated presigned GET URL")

	return req.URL, nil
}

// Ping checks that the configured bucket exists and the credentials can reach it.
func (c *S3Client) Ping(ctx context.Context) error {
	if c.config.Bucket == "" {
		return ErrMissingBucket
	}
	if _, err := c.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.config.Bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", c.config.Bucket, err)
	}
	return nil
}
