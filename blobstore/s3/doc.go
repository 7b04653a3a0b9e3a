// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("relevec/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	arc := archive.New(store)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large snapshot chunks
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//
// # Concurrent Writers
//
// S3 has no compare-and-swap, so two archives saving to the same prefix can
// overwrite each other's CURRENT pointer. CommitStore moves the pointer into a
// DynamoDB table and rejects a lost race with ErrConcurrentModification.
package s3
