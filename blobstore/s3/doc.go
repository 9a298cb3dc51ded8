// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	client := awss3.NewFromConfig(cfg)
//	store := s3.NewStore(client, "my-bucket", "game/sqpack")
//
//	p, err := exdcache.Open(ctx, source.FromBlobs(store))
//
// # Features
//
//   - Range reads for partial fetches through Open
//   - Parallel part downloads for whole files through Fetch
//   - Automatic pagination for listing
//   - Configurable key prefix
package s3
