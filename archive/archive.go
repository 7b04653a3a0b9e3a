package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/relevec"
	"github.com/hupe1980/relevec/blobstore"
	"github.com/hupe1980/relevec/codec"
	"github.com/hupe1980/relevec/internal/compress"
	"github.com/hupe1980/relevec/internal/hash"
	"github.com/hupe1980/relevec/internal/resource"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSnapshot is returned when the requested snapshot, or any snapshot
	// at all, does not exist.
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrCorrupt is returned when a manifest or blob fails validation.
	ErrCorrupt = errors.New("corrupt snapshot")

	// ErrSnapshotInUse is returned when deleting the snapshot CURRENT points at.
	ErrSnapshotInUse = errors.New("snapshot is current")
)

// manifestCodec encodes manifests independently of the record codec.
var manifestCodec = codec.Default

// Snapshot is the result of a Load.
type Snapshot struct {
	Manifest *Manifest
	// Vectors are in the order they were saved.
	Vectors []*relevec.Vector
}

// Archive saves and loads snapshots in a blob store.
// It is safe for concurrent use; concurrent saves race for CURRENT and the
// last one to finish wins unless the store rejects the update.
type Archive struct {
	store blobstore.BlobStore
	opts  options
	rc    *resource.Controller
}

// New creates an Archive over store.
func New(store blobstore.BlobStore, optFns ...Option) *Archive {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Archive{
		store: store,
		opts:  opts,
		rc: resource.NewController(resource.Config{
			MaxWorkers:         int64(opts.concurrency),
			IOLimitBytesPerSec: opts.ioLimit,
		}),
	}
}

// Save writes the registry of ser and vectors as a new snapshot and points
// CURRENT at it. Every vector must use a schema registered in ser's registry.
// On failure the blobs written so far are removed and CURRENT is unchanged.
func (a *Archive) Save(ctx context.Context, ser *relevec.Serializer, vectors []*relevec.Vector) (m *Manifest, err error) {
	start := time.Now()
	var id string
	var written atomic.Int64
	defer func() {
		a.opts.metricsCollector.RecordSnapshot(len(vectors), written.Load(), time.Since(start), err)
		a.opts.logger.LogSnapshot(ctx, id, len(vectors), err)
	}()

	if err := checkSchemas(ser.Registry(), vectors); err != nil {
		return nil, err
	}

	uid, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	id = uid.String()

	c := a.opts.codec
	if c == nil {
		c = ser.Codec()
	}

	m = &Manifest{
		Version:     FormatVersion,
		ID:          id,
		Codec:       c.Name(),
		Compression: a.opts.compression.String(),
		CreatedAt:   time.Now().UTC(),
		Vectors:     len(vectors),
	}

	defer func() {
		if err != nil {
			a.removeBlobs(context.WithoutCancel(ctx), snapshotPrefix(id))
		}
	}()

	regData, err := c.Marshal(ser.ExportRegistry().Map())
	if err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	if m.Registry, err = a.putBlock(ctx, snapshotPrefix(id)+registryName, regData, &written); err != nil {
		return nil, err
	}

	size := a.opts.chunkSize
	m.Chunks = make([]BlobInfo, (len(vectors)+size-1)/size)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.concurrency)
	for i := range m.Chunks {
		lo := i * size
		hi := min(lo+size, len(vectors))
		g.Go(func() error {
			records := make([]any, 0, hi-lo)
			for _, v := range vectors[lo:hi] {
				records = append(records, ser.ExportVector(v).Map())
			}
			data, err := c.Marshal(records)
			if err != nil {
				return fmt.Errorf("encode chunk %d: %w", i, err)
			}
			info, err := a.putBlock(gctx, chunkPath(id, i), data, &written)
			if err != nil {
				return err
			}
			info.Count = hi - lo
			m.Chunks[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest, err := manifestCodec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := a.put(ctx, manifestPath(id), manifest, &written); err != nil {
		return nil, err
	}
	if err := a.put(ctx, CurrentName, []byte(manifestPath(id)), &written); err != nil {
		return nil, err
	}

	return m, nil
}

// Load restores the snapshot CURRENT points at.
func (a *Archive) Load(ctx context.Context, ser *relevec.Serializer) (*Snapshot, error) {
	id, err := a.Current(ctx)
	if err != nil {
		return nil, err
	}
	return a.LoadID(ctx, ser, id)
}

// LoadID restores the snapshot with the given id. The saved registry is
// imported into ser's registry with ImportRegistry, so names that are
// already registered fail the load.
func (a *Archive) LoadID(ctx context.Context, ser *relevec.Serializer, id string) (snap *Snapshot, err error) {
	start := time.Now()
	var read atomic.Int64
	defer func() {
		var n int
		if snap != nil {
			n = len(snap.Vectors)
		}
		a.opts.metricsCollector.RecordRestore(n, read.Load(), time.Since(start), err)
		a.opts.logger.LogRestore(ctx, id, n, err)
	}()

	m, err := a.Manifest(ctx, id)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(m.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCorrupt, m.Codec)
	}
	t, err := compress.ParseType(m.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	raw, err := a.readRecords(ctx, m.Registry, t, c, &read)
	if err != nil {
		return nil, err
	}
	rec, err := relevec.DecodeRegistryRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, m.Registry.Path, err)
	}
	if err := ser.ImportRegistry(rec); err != nil {
		return nil, err
	}

	chunks := make([][]*relevec.Vector, len(m.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.concurrency)
	for i, info := range m.Chunks {
		g.Go(func() error {
			vectors, err := a.readChunk(gctx, ser, info, t, c, &read)
			if err != nil {
				return err
			}
			chunks[i] = vectors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors := make([]*relevec.Vector, 0, m.Vectors)
	for _, chunk := range chunks {
		vectors = append(vectors, chunk...)
	}
	if len(vectors) != m.Vectors {
		return nil, fmt.Errorf("%w: manifest lists %d vectors, chunks hold %d", ErrCorrupt, m.Vectors, len(vectors))
	}

	return &Snapshot{Manifest: m, Vectors: vectors}, nil
}

// Current returns the id of the snapshot CURRENT points at.
func (a *Archive) Current(ctx context.Context) (string, error) {
	data, err := a.get(ctx, CurrentName, nil)
	if errors.Is(err, blobstore.ErrNotFound) {
		return "", ErrNoSnapshot
	}
	if err != nil {
		return "", err
	}
	id, ok := parseManifestPath(strings.TrimSpace(string(data)))
	if !ok {
		return "", fmt.Errorf("%w: %s holds %q", ErrCorrupt, CurrentName, data)
	}
	return id, nil
}

// Manifest reads and validates the manifest of snapshot id.
func (a *Archive) Manifest(ctx context.Context, id string) (*Manifest, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSnapshot, err)
	}
	data, err := a.get(ctx, manifestPath(id), nil)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoSnapshot, id)
	}
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := manifestCodec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %w", ErrCorrupt, id, err)
	}
	if m.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported manifest version %d (expected %d)", ErrCorrupt, m.Version, FormatVersion)
	}
	if m.ID != id {
		return nil, fmt.Errorf("%w: manifest %s claims id %q", ErrCorrupt, id, m.ID)
	}
	return &m, nil
}

// Manifests returns the ids of all complete snapshots in ascending order.
// Ids are UUIDv7, so the order is also the order they were created in.
func (a *Archive) Manifests(ctx context.Context) ([]string, error) {
	names, err := a.store.List(ctx, snapshotsDir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, name := range names {
		if id, ok := parseManifestPath(name); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes every blob of snapshot id. The current snapshot cannot be
// deleted.
func (a *Archive) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return fmt.Errorf("%w: %w", ErrNoSnapshot, err)
	}
	current, err := a.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return err
	}
	if current == id {
		return fmt.Errorf("%w: %s", ErrSnapshotInUse, id)
	}

	names, err := a.store.List(ctx, snapshotPrefix(id))
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSnapshot, id)
	}

	// The manifest goes first so a partial delete is never listed.
	if err := a.store.Delete(ctx, manifestPath(id)); err != nil {
		return err
	}
	for _, name := range names {
		if name == manifestPath(id) {
			continue
		}
		if err := a.store.Delete(ctx, name); err != nil {
			return err
		}
	}
	a.opts.logger.DebugContext(ctx, "snapshot deleted", "snapshot", id, "blobs", len(names))
	return nil
}

func (a *Archive) readChunk(ctx context.Context, ser *relevec.Serializer, info BlobInfo, t compress.Type, c codec.Codec, read *atomic.Int64) ([]*relevec.Vector, error) {
	raw, err := a.readRecords(ctx, info, t, c, read)
	if err != nil {
		return nil, err
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a list, got %T", ErrCorrupt, info.Path, raw)
	}
	if len(list) != info.Count {
		return nil, fmt.Errorf("%w: %s: holds %d vectors, manifest lists %d", ErrCorrupt, info.Path, len(list), info.Count)
	}

	vectors := make([]*relevec.Vector, len(list))
	for i, item := range list {
		rec, err := relevec.DecodeVectorRecord(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", ErrCorrupt, info.Path, i, err)
		}
		v, err := ser.ImportVector(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%d]: %w", ErrCorrupt, info.Path, i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// readRecords reads a compressed blob, verifies it against info and decodes
// it into a generic record tree.
func (a *Archive) readRecords(ctx context.Context, info BlobInfo, t compress.Type, c codec.Codec, read *atomic.Int64) (any, error) {
	block, err := a.get(ctx, info.Path, read)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: missing blob %s", ErrCorrupt, info.Path)
	}
	if err != nil {
		return nil, err
	}
	if int64(len(block)) != info.Size {
		return nil, fmt.Errorf("%w: %s: size %d, manifest lists %d", ErrCorrupt, info.Path, len(block), info.Size)
	}
	if sum := hash.CRC32C(block); sum != info.Checksum {
		return nil, fmt.Errorf("%w: %s: checksum %08x, manifest lists %08x", ErrCorrupt, info.Path, sum, info.Checksum)
	}

	data, err := compress.Decode(block, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, info.Path, err)
	}
	var raw any
	if err := c.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, info.Path, err)
	}
	return raw, nil
}

// putBlock compresses data and writes it to path.
func (a *Archive) putBlock(ctx context.Context, path string, data []byte, written *atomic.Int64) (BlobInfo, error) {
	block, err := compress.Encode(data, a.opts.compression)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("compress %s: %w", path, err)
	}
	if err := a.put(ctx, path, block, written); err != nil {
		return BlobInfo{}, err
	}
	return BlobInfo{
		Path:     path,
		Size:     int64(len(block)),
		Checksum: hash.CRC32C(block),
	}, nil
}

func (a *Archive) put(ctx context.Context, path string, data []byte, written *atomic.Int64) error {
	if err := a.acquire(ctx, len(data)); err != nil {
		return err
	}
	defer a.rc.ReleaseWorker()

	if err := a.store.Put(ctx, path, data); err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	written.Add(int64(len(data)))
	a.opts.logger.DebugContext(ctx, "blob written", "path", path, "bytes", len(data))
	return nil
}

func (a *Archive) get(ctx context.Context, path string, read *atomic.Int64) ([]byte, error) {
	if err := a.rc.AcquireWorker(ctx); err != nil {
		return nil, err
	}
	defer a.rc.ReleaseWorker()

	data, err := blobstore.ReadAll(ctx, a.store, path)
	if err != nil {
		return nil, err
	}
	if err := a.rc.AcquireIO(ctx, len(data)); err != nil {
		return nil, err
	}
	if read != nil {
		read.Add(int64(len(data)))
	}
	return data, nil
}

// acquire reserves a worker slot and n bytes of IO budget. The caller
// releases the worker slot.
func (a *Archive) acquire(ctx context.Context, n int) error {
	if err := a.rc.AcquireWorker(ctx); err != nil {
		return err
	}
	if err := a.rc.AcquireIO(ctx, n); err != nil {
		a.rc.ReleaseWorker()
		return err
	}
	return nil
}

// removeBlobs deletes everything under prefix, logging failures.
func (a *Archive) removeBlobs(ctx context.Context, prefix string) {
	names, err := a.store.List(ctx, prefix)
	if err != nil {
		a.opts.logger.WarnContext(ctx, "snapshot cleanup failed", "prefix", prefix, "error", err)
		return
	}
	for _, name := range names {
		if err := a.store.Delete(ctx, name); err != nil {
			a.opts.logger.WarnContext(ctx, "snapshot cleanup failed", "path", name, "error", err)
		}
	}
}

func checkSchemas(reg *relevec.Registry, vectors []*relevec.Vector) error {
	for i, v := range vectors {
		if v == nil {
			return fmt.Errorf("vector %d is nil", i)
		}
		s, ok := reg.Lookup(v.Schema().Name())
		if !ok || s != v.Schema() {
			return fmt.Errorf("vector %d: %w: %q is not registered in the serializer's registry", i, relevec.ErrUnknownSchema, v.Schema().Name())
		}
	}
	return nil
}
