package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/exdcache"
	"github.com/hupe1980/exdcache/blobstore"
	miniostore "github.com/hupe1980/exdcache/blobstore/minio"
	s3store "github.com/hupe1980/exdcache/blobstore/s3"
	"github.com/hupe1980/exdcache/blobstore/web"
	"github.com/hupe1980/exdcache/internal/cache"
	"github.com/hupe1980/exdcache/internal/resource"
	"github.com/hupe1980/exdcache/source"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// openStore builds the configured backend and its decorators. The returned
// closer releases backend resources.
func openStore(ctx context.Context, c Config, logger *slog.Logger) (blobstore.BlobStore, io.Closer, error) {
	var (
		store  blobstore.BlobStore
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(c.Backend) {
	case "local":
		store = blobstore.NewLocalStore(c.Path)
	case "bolt":
		bs, err := blobstore.OpenBoltStore(c.Path, blobstore.BoltOptions{ReadOnly: true, Timeout: time.Second})
		if err != nil {
			return nil, nil, err
		}
		store, closer = bs, bs
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.Region))
		if err != nil {
			return nil, nil, fmt.Errorf("aws config: %w", err)
		}
		client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
			if c.Endpoint != "" {
				o.BaseEndpoint = aws.String(c.Endpoint)
			}
			o.UsePathStyle = c.PathStyle
		})
		store = s3store.NewStore(client, c.Bucket, c.Prefix)
	case "minio":
		client, err := minio.New(c.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
			Secure: c.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("minio client: %w", err)
		}
		store = miniostore.NewStore(client, c.Bucket, c.Prefix)
	case "web":
		ws, err := web.New(ctx, &http.Client{Timeout: 2 * time.Minute}, c.BaseURL, c.Version)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "using web archive", "version", ws.Version())
		store = ws
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.MaxFetches > 0 || c.IOLimit > 0 {
		store = blobstore.NewLimitedStore(store, resource.NewController(resource.Config{
			MaxConcurrentFetches: c.MaxFetches,
			IOLimitBytesPerSec:   c.IOLimit,
		}))
	}

	if c.CacheMB > 0 {
		capacity := c.CacheMB << 20
		var bc cache.BlockCache
		if c.CacheDir != "" {
			dc, err := cache.NewDiskBlockCache(cache.DiskCacheConfig{RootDir: c.CacheDir, MaxSizeBytes: capacity})
			if err != nil {
				return nil, nil, fmt.Errorf("disk cache: %w", err)
			}
			bc = dc
		} else {
			bc = cache.NewShardedLRUBlockCache(capacity, nil)
		}
		store = blobstore.NewCachingStore(store, bc, 0)
		closer = multiCloser{closer, bc}
	}

	if c.Compressed {
		store = blobstore.NewCompressedStore(store)
	}
	return store, closer, nil
}

func openProvider(ctx context.Context, c Config, logger *slog.Logger) (*exdcache.Provider, func(), error) {
	store, closer, err := openStore(ctx, c, logger)
	if err != nil {
		return nil, nil, err
	}

	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("timeout: %w", err)
	}

	headerCache := c.HeaderCache
	if strings.EqualFold(c.Backend, "web") && headerCache < exdcache.WebHeaderCacheSize {
		headerCache = exdcache.WebHeaderCacheSize
	}

	p, err := exdcache.Open(ctx, source.FromBlobs(store),
		exdcache.WithHeaderCacheSize(headerCache),
		exdcache.WithFetchTimeout(timeout),
		exdcache.WithMemoryLimit(c.MemoryMB<<20),
		exdcache.WithSlogHandler(logger.Handler()),
	)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return p, func() {
		p.Close()
		closer.Close()
	}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
