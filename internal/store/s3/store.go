// Package s3 implements a table Store over an S3-compatible bucket (AWS S3
// or MinIO). Each table is one CSV object at <prefix><table>.csv.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/JonMunkholm/spregistry/internal/csvio"
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

const contentType = "text/csv; charset=utf-8"

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds explicit construction parameters.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. MinIO
	Prefix          string // optional key prefix, e.g. "registry/"
	PathStyle       bool
	AccessKeyID     string // optional, falls back to the default chain
	SecretAccessKey string
}

// Store implements table.Store on a single bucket.
type Store struct {
	client objectAPI
	bucket string
	prefix string
}

// New creates an S3 table store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newWithClient(client objectAPI, bucket, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// Driver returns the table driver identifier.
func (s *Store) Driver() table.Driver { return table.DriverS3 }

// Key returns the object key for the named table.
func (s *Store) Key(name string) string {
	return s.prefix + strings.TrimSuffix(name, ".csv") + ".csv"
}

// Load downloads and parses the named table.
func (s *Store) Load(ctx context.Context, name string, columns []string) ([]table.Row, error) {
	key := s.Key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if isNotFound(err) {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, table.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	rows, err := csvio.ReadTable(out.Body, columns)
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, err)
	}
	return rows, nil
}

// Commit encodes every table before uploading any of them, so an encoding
// failure writes nothing. Objects are then replaced one by one in the given
// order.
func (s *Store) Commit(ctx context.Context, tables ...table.Table) error {
	bodies := make([][]byte, len(tables))
	for i, t := range tables {
		if t.Name == "" {
			return fmt.Errorf("table %d: empty name", i)
		}
		var buf bytes.Buffer
		if err := csvio.WriteTable(&buf, t.Columns, t.Rows); err != nil {
			return fmt.Errorf("encode %s: %w", t.Name, err)
		}
		bodies[i] = buf.Bytes()
	}

	for i, t := range tables {
		key := s.Key(t.Name)
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        &s.bucket,
			Key:           &key,
			Body:          bytes.NewReader(bodies[i]),
			ContentLength: aws.Int64(int64(len(bodies[i]))),
			ContentType:   aws.String(contentType),
		})
		if err != nil {
			return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
		}
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
