package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds object storage settings. Endpoint may point at any
// S3-compatible provider; PublicBaseURL is what clients use to fetch objects.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	PathStyle       bool
}

// S3 is a thin uploader over an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	cfg    S3Config
}

// NewS3 builds a client with static credentials.
func NewS3(cfg S3Config) *S3 {
	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return &S3{client: client, cfg: cfg}
}

// Put uploads an object and returns its public URL.
func (s *S3) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// PublicURL returns the client-facing URL for a stored object.
func (s *S3) PublicURL(key string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket)
	}
	return base + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL recovers the object key from a public URL previously produced
// by PublicURL. Returns "" when the URL does not belong to this bucket.
func (s *S3) KeyFromURL(url string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket)
	}
	if !strings.HasPrefix(url, base+"/") {
		return ""
	}
	return strings.TrimPrefix(url, base+"/")
}
