// Package blobstore provides the storage abstraction archives are written to.
//
// BlobStore is the interface for reading and writing named blobs (snapshot
// chunks, manifests, the CURRENT pointer). Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral archives
//   - LocalStore: local filesystem with atomic rename-on-put
//   - minio.Store: MinIO and other S3-compatible storage
//   - s3.Store: Amazon S3 with multipart uploads
//   - s3.CommitStore: S3 plus DynamoDB for atomic CURRENT updates
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)       // Open for reading
//	    Put(ctx, name, data) error          // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
