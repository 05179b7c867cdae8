package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/flarehq/flarepp/internal/config"
)

// MediaStore is what the upload handler and the publish worker depend on;
// the S3 client below is the only real implementation.
type MediaStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (url string, err error)
	Download(ctx context.Context, key string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, key string) error
}

type S3Client struct {
	api    *s3.S3
	bucket string
}

func NewS3Client(cfg config.Config) (*S3Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.S3Region),
	}

	if cfg.S3AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)
	}

	// MinIO for local development
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if !cfg.S3UseSSL {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	return &S3Client{
		api:    s3.New(sess),
		bucket: cfg.S3Bucket,
	}, nil
}

func (c *S3Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	// PutObject needs a ReadSeeker; buffer small objects, stream via
	// aws.ReadSeekCloser when the caller already hands us one.
	seeker, ok := body.(io.ReadSeeker)

	if !ok {
		b, err := io.ReadAll(body)

		if err != nil {
			return "", fmt.Errorf("read upload body: %w", err)
		}

		seeker = bytes.NewReader(b)
	}

	_, err := c.api.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        seeker,
		ContentType: aws.String(contentType),
	})

	if err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}

	return c.objectURL(key), nil
}

func (c *S3Client) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	out, err := c.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return nil, 0, fmt.Errorf("get object %q: %w", key, err)
	}

	return out.Body, aws.Int64Value(out.ContentLength), nil
}

func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	if err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (c *S3Client) objectURL(key string) string {
	endpoint := aws.StringValue(c.api.Config.Endpoint)

	if endpoint != "" && !strings.Contains(endpoint, "amazonaws.com") {
		// MinIO URL format
		protocol := "https"
		if c.api.Config.DisableSSL != nil && *c.api.Config.DisableSSL {
			protocol = "http"
		}
		endpoint = strings.TrimPrefix(endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, endpoint, c.bucket, key)
	}

	region := aws.StringValue(c.api.Config.Region)
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, region, key)
}

// KeyFromURL recovers the object key from a stored media URL so the worker
// can fetch what the upload handler stored.
func KeyFromURL(url, bucket string) string {
	idx := strings.Index(url, "/"+bucket+"/")

	if idx >= 0 {
		return url[idx+len(bucket)+2:]
	}

	// virtual-hosted style: https://bucket.s3.region.amazonaws.com/key
	marker := ".amazonaws.com/"

	if i := strings.Index(url, marker); i >= 0 {
		return url[i+len(marker):]
	}

	return ""
}
