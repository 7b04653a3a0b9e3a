package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/hupe1980/relevec"
	"github.com/hupe1980/relevec/blobstore"
	"github.com/hupe1980/relevec/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ser     *relevec.Serializer
	vectors []*relevec.Vector
}

func newFixture(t *testing.T, c codec.Codec, n int) fixture {
	t.Helper()
	reg := relevec.NewRegistry()
	ci, err := reg.GetOrCreate("Ci", relevec.DimCount(3))
	require.NoError(t, err)
	cu, err := reg.GetOrCreate("Cu")
	require.NoError(t, err)
	cn, err := reg.GetOrCreate("Cn", relevec.DimNames("a", "b", "c"))
	require.NoError(t, err)

	vectors := make([]*relevec.Vector, 0, n)
	for i := range n {
		var v *relevec.Vector
		switch i % 3 {
		case 0:
			v, err = relevec.NewVector(ci, relevec.At(i%3, float64(i)), relevec.At(2, -0.5))
		case 1:
			v, err = relevec.NewVector(cu, relevec.At(i*1000, 1.25))
		default:
			v, err = relevec.NewVector(cn, relevec.Named("b", float64(i)/7))
		}
		require.NoError(t, err)
		vectors = append(vectors, v)
	}
	return fixture{ser: relevec.NewSerializer(reg, relevec.WithCodec(c)), vectors: vectors}
}

func assertRestored(t *testing.T, want fixture, ser *relevec.Serializer, snap *Snapshot) {
	t.Helper()
	assert.Equal(t, want.ser.ExportRegistry(), ser.ExportRegistry())
	require.Len(t, snap.Vectors, len(want.vectors))
	for i, v := range want.vectors {
		got := snap.Vectors[i]
		assert.Equal(t, v.Schema().Name(), got.Schema().Name())
		assert.Equal(t, v.Entries(), got.Entries(), "vector %d", i)
		// The restored vector references the restored registry's schema.
		s, ok := ser.Registry().Lookup(got.Schema().Name())
		require.True(t, ok)
		assert.Same(t, s, got.Schema())
	}
}

func TestArchive_SaveLoad(t *testing.T) {
	stores := map[string]func(t *testing.T) blobstore.BlobStore{
		"memory": func(*testing.T) blobstore.BlobStore { return blobstore.NewMemoryStore() },
		"local":  func(t *testing.T) blobstore.BlobStore { return blobstore.NewLocalStore(t.TempDir()) },
	}
	for storeName, newStore := range stores {
		for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
			for _, c := range []codec.Codec{codec.JSON{}, codec.YAML{}} {
				t.Run(fmt.Sprintf("%s/%s/%s", storeName, comp, c.Name()), func(t *testing.T) {
					ctx := t.Context()
					src := newFixture(t, c, 50)
					arc := New(newStore(t), WithCompression(comp), WithChunkSize(7), WithConcurrency(3))

					m, err := arc.Save(ctx, src.ser, src.vectors)
					require.NoError(t, err)
					assert.Equal(t, c.Name(), m.Codec)
					assert.Equal(t, comp.String(), m.Compression)
					assert.Equal(t, 50, m.Vectors)
					require.Len(t, m.Chunks, 8)
					assert.Equal(t, 1, m.Chunks[7].Count)

					dst := relevec.NewSerializer(relevec.NewRegistry())
					snap, err := arc.Load(ctx, dst)
					require.NoError(t, err)
					assert.Equal(t, m.ID, snap.Manifest.ID)
					assertRestored(t, src, dst, snap)
				})
			}
		}
	}
}

func TestArchive_SaveLoad_Empty(t *testing.T) {
	ctx := t.Context()
	src := newFixture(t, codec.Default, 0)
	arc := New(blobstore.NewMemoryStore())

	m, err := arc.Save(ctx, src.ser, nil)
	require.NoError(t, err)
	assert.Empty(t, m.Chunks)

	dst := relevec.NewSerializer(relevec.NewRegistry())
	snap, err := arc.Load(ctx, dst)
	require.NoError(t, err)
	assert.Empty(t, snap.Vectors)
	assert.Equal(t, []string{"Ci", "Cn", "Cu"}, dst.Registry().Names())
}

func TestArchive_Load_NameConflict(t *testing.T) {
	ctx := t.Context()
	src := newFixture(t, codec.Default, 5)
	arc := New(blobstore.NewMemoryStore())
	_, err := arc.Save(ctx, src.ser, src.vectors)
	require.NoError(t, err)

	reg := relevec.NewRegistry()
	_, err = reg.GetOrCreate("Cn", relevec.DimCount(1))
	require.NoError(t, err)

	_, err = arc.Load(ctx, relevec.NewSerializer(reg))
	assert.ErrorIs(t, err, relevec.ErrNameAlreadyRegistered)
}

func TestArchive_Load_NoSnapshot(t *testing.T) {
	arc := New(blobstore.NewMemoryStore())

	_, err := arc.Load(t.Context(), relevec.NewSerializer(relevec.NewRegistry()))
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = arc.LoadID(t.Context(), relevec.NewSerializer(relevec.NewRegistry()), "../etc")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestArchive_Save_UnregisteredSchema(t *testing.T) {
	src := newFixture(t, codec.Default, 3)

	other := relevec.NewRegistry()
	s, err := other.GetOrCreate("Ci", relevec.DimCount(3))
	require.NoError(t, err)
	foreign, err := relevec.NewVector(s, relevec.At(0, 1))
	require.NoError(t, err)

	store := blobstore.NewMemoryStore()
	arc := New(store)
	_, err = arc.Save(t.Context(), src.ser, append(src.vectors, foreign))
	assert.ErrorIs(t, err, relevec.ErrUnknownSchema)

	names, err := store.List(t.Context(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestArchive_Corruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, store *blobstore.MemoryStore, m *Manifest)
	}{
		{"flipped byte", func(t *testing.T, store *blobstore.MemoryStore, m *Manifest) {
			data, err := blobstore.ReadAll(t.Context(), store, m.Chunks[0].Path)
			require.NoError(t, err)
			data[len(data)-1] ^= 0xff
			require.NoError(t, store.Put(t.Context(), m.Chunks[0].Path, data))
		}},
		{"missing chunk", func(t *testing.T, store *blobstore.MemoryStore, m *Manifest) {
			require.NoError(t, store.Delete(t.Context(), m.Chunks[1].Path))
		}},
		{"bad manifest", func(t *testing.T, store *blobstore.MemoryStore, m *Manifest) {
			require.NoError(t, store.Put(t.Context(), manifestPath(m.ID), []byte("{")))
		}},
		{"bad current", func(t *testing.T, store *blobstore.MemoryStore, _ *Manifest) {
			require.NoError(t, store.Put(t.Context(), CurrentName, []byte("elsewhere")))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFixture(t, codec.Default, 10)
			store := blobstore.NewMemoryStore()
			arc := New(store, WithChunkSize(4))
			m, err := arc.Save(t.Context(), src.ser, src.vectors)
			require.NoError(t, err)

			tt.mutate(t, store, m)

			_, err = arc.Load(t.Context(), relevec.NewSerializer(relevec.NewRegistry()))
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestArchive_ManifestsAndDelete(t *testing.T) {
	ctx := t.Context()
	src := newFixture(t, codec.Default, 4)
	store := blobstore.NewMemoryStore()
	arc := New(store, WithChunkSize(2))

	first, err := arc.Save(ctx, src.ser, src.vectors)
	require.NoError(t, err)
	second, err := arc.Save(ctx, src.ser, src.vectors[:1])
	require.NoError(t, err)

	ids, err := arc.Manifests(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	current, err := arc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current)

	assert.ErrorIs(t, arc.Delete(ctx, second.ID), ErrSnapshotInUse)

	// Older snapshots can still be loaded by id.
	snap, err := arc.LoadID(ctx, relevec.NewSerializer(relevec.NewRegistry()), first.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Vectors, 4)

	require.NoError(t, arc.Delete(ctx, first.ID))
	ids, err = arc.Manifests(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, ids)

	names, err := store.List(ctx, snapshotPrefix(first.ID))
	require.NoError(t, err)
	assert.Empty(t, names)

	assert.ErrorIs(t, arc.Delete(ctx, first.ID), ErrNoSnapshot)
}

type failingStore struct {
	*blobstore.MemoryStore
	failOn string
}

func (s *failingStore) Put(ctx context.Context, name string, data []byte) error {
	if name == s.failOn || (s.failOn == chunkNameStart && strings.Contains(name, chunkNameStart)) {
		return errors.New("disk full")
	}
	return s.MemoryStore.Put(ctx, name, data)
}

func TestArchive_Save_FailureCleansUp(t *testing.T) {
	for _, failOn := range []string{chunkNameStart, CurrentName} {
		t.Run(failOn, func(t *testing.T) {
			ctx := t.Context()
			src := newFixture(t, codec.Default, 6)
			store := &failingStore{MemoryStore: blobstore.NewMemoryStore(), failOn: failOn}

			metrics := &relevec.BasicMetricsCollector{}
			arc := New(store, WithChunkSize(2), WithMetricsCollector(metrics))
			_, err := arc.Save(ctx, src.ser, src.vectors)
			require.Error(t, err)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names)

			_, err = arc.Current(ctx)
			assert.ErrorIs(t, err, ErrNoSnapshot)
			assert.Equal(t, int64(1), metrics.GetStats().SnapshotErrors)
		})
	}
}

func TestArchive_Observability(t *testing.T) {
	ctx := t.Context()
	var buf bytes.Buffer
	logger := relevec.NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	metrics := &relevec.BasicMetricsCollector{}

	src := newFixture(t, codec.Default, 9)
	arc := New(blobstore.NewMemoryStore(), WithLogger(logger), WithMetricsCollector(metrics), WithChunkSize(4))

	_, err := arc.Save(ctx, src.ser, src.vectors)
	require.NoError(t, err)
	_, err = arc.Load(ctx, relevec.NewSerializer(relevec.NewRegistry()))
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SnapshotCount)
	assert.Positive(t, stats.SnapshotBytes)
	assert.Equal(t, int64(1), stats.RestoreCount)
	assert.Equal(t, int64(9), stats.RestoreVectors)
	assert.Positive(t, stats.RestoreBytes)

	assert.Contains(t, buf.String(), "snapshot saved")
	assert.Contains(t, buf.String(), "snapshot restored")
}

func TestArchive_IOLimit(t *testing.T) {
	ctx := t.Context()
	src := newFixture(t, codec.Default, 20)
	arc := New(blobstore.NewMemoryStore(), WithIOLimit(1<<20), WithChunkSize(5))

	_, err := arc.Save(ctx, src.ser, src.vectors)
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = arc.Load(canceled, relevec.NewSerializer(relevec.NewRegistry()))
	assert.ErrorIs(t, err, context.Canceled)
}
