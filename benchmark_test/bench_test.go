package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/relevec"
	"github.com/hupe1980/relevec/archive"
	"github.com/hupe1980/relevec/blobstore"
	"github.com/hupe1980/relevec/codec"
	"github.com/hupe1980/relevec/testutil"
)

// Run benchmarks: go test -bench=. -run=^$ ./benchmark_test/...

const maxIndex = 1 << 20

func fixture(b *testing.B, num, nnz int) (*relevec.Serializer, []*relevec.Vector) {
	b.Helper()

	reg := relevec.NewRegistry()
	s, err := reg.GetOrCreate("Bench")
	if err != nil {
		b.Fatal(err)
	}

	rng := testutil.NewRNG(42)
	vectors, err := rng.SparseVectors(s, num, nnz, maxIndex)
	if err != nil {
		b.Fatal(err)
	}

	return relevec.NewSerializer(reg), vectors
}

func BenchmarkDot(b *testing.B) {
	for _, nnz := range []int{16, 256, 4096} {
		b.Run(fmt.Sprintf("nnz=%d", nnz), func(b *testing.B) {
			_, vectors := fixture(b, 2, nnz)
			x, y := vectors[0], vectors[1]

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := x.Dot(y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkNormalize(b *testing.B) {
	_, vectors := fixture(b, 1, 1024)
	v := vectors[0]

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c := v.Clone()
		if err := c.Normalize(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshalVector(b *testing.B) {
	codecs := []codec.Codec{codec.JSON{}, codec.GoJSON{}, codec.YAML{}}

	for _, c := range codecs {
		b.Run(c.Name(), func(b *testing.B) {
			reg := relevec.NewRegistry()
			s, err := reg.GetOrCreate("Bench")
			if err != nil {
				b.Fatal(err)
			}
			v, err := testutil.NewRNG(42).SparseVector(s, 256, maxIndex)
			if err != nil {
				b.Fatal(err)
			}
			ser := relevec.NewSerializer(reg, relevec.WithCodec(c))

			b.Run("marshal", func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := ser.MarshalVector(v); err != nil {
						b.Fatal(err)
					}
				}
			})

			data, err := ser.MarshalVector(v)
			if err != nil {
				b.Fatal(err)
			}

			b.Run("unmarshal", func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))
				for i := 0; i < b.N; i++ {
					if _, err := ser.UnmarshalVector(data); err != nil {
						b.Fatal(err)
					}
				}
			})
		})
	}
}

func BenchmarkArchive(b *testing.B) {
	ctx := context.Background()

	compressions := []archive.Compression{
		archive.CompressionNone,
		archive.CompressionLZ4,
		archive.CompressionZSTD,
	}

	for _, comp := range compressions {
		b.Run(comp.String(), func(b *testing.B) {
			ser, vectors := fixture(b, 1000, 64)

			b.Run("save", func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					a := archive.New(blobstore.NewMemoryStore(), archive.WithCompression(comp))
					if _, err := a.Save(ctx, ser, vectors); err != nil {
						b.Fatal(err)
					}
				}
				b.ReportMetric(float64(len(vectors)*b.N)/b.Elapsed().Seconds(), "vectors/s")
			})

			store := blobstore.NewMemoryStore()
			a := archive.New(store, archive.WithCompression(comp))
			if _, err := a.Save(ctx, ser, vectors); err != nil {
				b.Fatal(err)
			}

			b.Run("load", func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					// Fresh registry per load; imports are strict.
					target := relevec.NewSerializer(relevec.NewRegistry())
					if _, err := a.Load(ctx, target); err != nil {
						b.Fatal(err)
					}
				}
				b.ReportMetric(float64(len(vectors)*b.N)/b.Elapsed().Seconds(), "vectors/s")
			})
		})
	}
}
