// internal/media/s3.go
// S3-backed URL resolution using presigned GET URLs. Presigned URLs expire,
// which is why resolution happens per request instead of at cache-fill time.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Resolver struct {
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
}

// NewS3 creates a resolver that issues presigned GET URLs for objects in the
// given bucket.
func NewS3(ctx context.Context, bucket, region string, expiry time.Duration) (URLResolver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	client := s3.NewFromConfig(cfg)
	return &s3Resolver{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		expiry:    expiry,
	}, nil
}

func (r *s3Resolver) Resolve(ctx context.Context, relativePath string) (string, error) {
	if relativePath == "" {
		return "", nil
	}
	key := strings.TrimPrefix(relativePath, "/")
	req, err := r.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(r.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}
