package rules

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source fetches the raw rules document from wherever it lives.
type Source interface {
	// Location describes the source for logs and errors.
	Location() string
	Fetch(ctx context.Context) ([]byte, error)
}

// NewSource returns the source for path: s3://bucket/key selects S3,
// anything else a local file.
func NewSource(ctx context.Context, path, region, endpoint string) (Source, error) {
	after, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return &LocalSource{path: path}, nil
	}
	bucket, key, ok := strings.Cut(after, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("malformed rules path %q, want s3://bucket/key", path)
	}
	return NewS3Source(ctx, bucket, key, region, endpoint)
}

// LocalSource reads the rules document from the filesystem.
type LocalSource struct {
	path string
}

func NewLocalSource(path string) *LocalSource {
	return &LocalSource{path: path}
}

func (s *LocalSource) Location() string { return s.path }

func (s *LocalSource) Fetch(context.Context) ([]byte, error) {
	return os.ReadFile(s.path)
}

// S3Source reads the rules document from an S3-compatible object store.
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Source creates an S3 source. If endpoint is non-empty, path-style
// addressing is enabled (for MinIO and similar).
func NewS3Source(ctx context.Context, bucket, key, region, endpoint string) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Source{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		key:    key,
	}, nil
}

func (s *S3Source) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

func (s *S3Source) Fetch(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
