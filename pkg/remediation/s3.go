package remediation

import (
    "bytes"
    "context"
    "fmt"
    "strings"
    "sync"

    "github.com/minio/minio-go/v7"
    "github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config addresses an S3 compatible bucket that mirrors the artifacts.
type S3Config struct {
    Endpoint  string
    Region    string
    AccessKey string
    SecretKey string
    Bucket    string
    Prefix    string
    UseSSL    bool
}

// Enabled reports whether a mirror endpoint is configured.
func (c S3Config) Enabled() bool { return strings.TrimSpace(c.Endpoint) != "" }

// Sink receives a copy of every artifact written to disk.
type Sink interface {
    Name() string
    Put(ctx context.Context, name string, content []byte) error
}

// S3Sink uploads artifacts under <prefix>/<file>.
type S3Sink struct {
    client   *minio.Client
    bucket   string
    region   string
    prefix   string
    initOnce sync.Once
    initErr  error
}

// NewS3Sink validates cfg and builds the client. No request is made until
// the first Put.
func NewS3Sink(cfg S3Config) (*S3Sink, error) {
    endpoint := strings.TrimSpace(cfg.Endpoint)
    if endpoint == "" { return nil, fmt.Errorf("s3 endpoint is required") }
    access, secret := strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey)
    if access == "" || secret == "" { return nil, fmt.Errorf("s3 access key and secret key are required") }
    bucket := strings.TrimSpace(cfg.Bucket)
    if bucket == "" { return nil, fmt.Errorf("s3 bucket is required") }
    region := strings.TrimSpace(cfg.Region)
    if region == "" { region = "us-east-1" }

    client, err := minio.New(endpoint, &minio.Options{
        Creds:  credentials.NewStaticV4(access, secret, ""),
        Secure: cfg.UseSSL,
        Region: region,
    })
    if err != nil { return nil, fmt.Errorf("init s3 client: %w", err) }
    return &S3Sink{client: client, bucket: bucket, region: region, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) ensureBucket(ctx context.Context) error {
    s.initOnce.Do(func() {
        exists, err := s.client.BucketExists(ctx, s.bucket)
        if err != nil { s.initErr = err; return }
        if exists { return }
        s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
    })
    return s.initErr
}

// Put uploads one artifact.
func (s *S3Sink) Put(ctx context.Context, name string, content []byte) error {
    if err := s.ensureBucket(ctx); err != nil { return fmt.Errorf("ensure bucket: %w", err) }
    _, err := s.client.PutObject(ctx, s.bucket, s.Key(name), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
        ContentType: "application/json",
    })
    return err
}

// Key returns the object key of an artifact.
func (s *S3Sink) Key(name string) string {
    name = strings.TrimLeft(name, "/")
    if s.prefix == "" { return name }
    return s.prefix + "/" + name
}

var _ Sink = (*S3Sink)(nil)
