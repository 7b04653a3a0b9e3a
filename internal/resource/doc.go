// Package resource limits the IO and concurrency of archive transfers.
//
//   - Workers: a weighted semaphore bounds concurrent blob transfers
//   - IO: a token bucket throttles bytes moved to and from the blobstore
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:         4,
//	    IOLimitBytesPerSec: 8 << 20, // 8MB/s
//	})
//
//	if err := rc.AcquireWorker(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseWorker()
//
//	if err := rc.AcquireIO(ctx, len(block)); err != nil {
//	    return err
//	}
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
