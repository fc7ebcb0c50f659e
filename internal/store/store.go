// Package store selects and opens the table.Store backend named by the
// configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/spregistry/internal/config"
	"github.com/JonMunkholm/spregistry/internal/store/csvfs"
	"github.com/JonMunkholm/spregistry/internal/store/memory"
	"github.com/JonMunkholm/spregistry/internal/store/postgres"
	"github.com/JonMunkholm/spregistry/internal/store/s3"
	"github.com/JonMunkholm/spregistry/internal/store/table"
)

// Open returns the backend selected by cfg.Store.Driver:
//
//	csv:      STORE_CSV_DIR (default ./data)
//	s3:       STORE_S3_BUCKET, STORE_S3_REGION, STORE_S3_ENDPOINT, STORE_S3_PREFIX
//	postgres: DATABASE_URL, DB_SCHEMA
//	memory:   nothing persisted
func Open(ctx context.Context, cfg *config.Config) (table.Store, error) {
	switch table.Driver(cfg.Store.Driver) {
	case table.DriverCSV, "":
		return csvfs.New(cfg.Store.Dir)
	case table.DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.Store.S3.Bucket,
			Region:          cfg.Store.S3.Region,
			Endpoint:        cfg.Store.S3.Endpoint,
			Prefix:          cfg.Store.S3.Prefix,
			PathStyle:       cfg.Store.S3.PathStyle,
			AccessKeyID:     cfg.Store.S3.AccessKeyID,
			SecretAccessKey: cfg.Store.S3.SecretAccessKey,
		})
	case table.DriverPostgres:
		return postgres.Open(ctx, postgres.Config{
			URL:             cfg.Database.URL,
			Schema:          cfg.Database.Schema,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
	case table.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
