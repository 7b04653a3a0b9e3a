package relevec_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hupe1980/relevec"
	"github.com/hupe1980/relevec/archive"
	"github.com/hupe1980/relevec/blobstore"
	"github.com/hupe1980/relevec/codec"
)

// Example_namedVector demonstrates building and normalizing a vector over a
// named schema.
func Example_namedVector() {
	reg := relevec.NewRegistry()
	cn, err := reg.GetOrCreate("Cn", relevec.DimNames("a", "b", "c"))
	if err != nil {
		log.Fatal(err)
	}

	v, err := relevec.NewVector(cn, relevec.Named("a", 3), relevec.Named("b", 4))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v, v.Magnitude())

	if err := v.Normalize(); err != nil {
		log.Fatal(err)
	}
	fmt.Println(v, v.IsNormalized())
	// Output:
	// Cn {a: 3, b: 4} 5
	// Cn {a: 0.6, b: 0.8} true
}

// Example_dot demonstrates the dot product and its schema check.
func Example_dot() {
	reg := relevec.NewRegistry()
	c2, _ := reg.GetOrCreate("C2", relevec.DimCount(2))
	c3, _ := reg.GetOrCreate("C3", relevec.DimCount(2))

	x, _ := relevec.NewVectorFromIndexes(c2, map[int]float64{0: 3})
	y, _ := relevec.NewVectorFromIndexes(c2, map[int]float64{0: 4, 1: 9})
	z, _ := relevec.NewVectorFromIndexes(c3, map[int]float64{0: 4})

	dot, _ := x.Dot(y)
	fmt.Println(dot)

	_, err := x.Dot(z)
	fmt.Println(errors.Is(err, relevec.ErrSchemaMismatch))
	// Output:
	// 12
	// true
}

// Example_serializer demonstrates the interchange record of a vector.
func Example_serializer() {
	reg := relevec.NewRegistry()
	cn, _ := reg.GetOrCreate("Cn", relevec.DimNames("a", "b", "c"))
	v, _ := relevec.NewVectorFromNames(cn, map[string]float64{"b": 0.11, "c": 0.21})

	ser := relevec.NewSerializer(reg, relevec.WithCodec(codec.JSON{}))
	data, err := ser.MarshalVector(v)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(data))

	registry, _ := ser.MarshalRegistry()
	fmt.Println(string(registry))

	// A fresh process imports the registry before any vector.
	other := relevec.NewSerializer(relevec.NewRegistry(), relevec.WithCodec(codec.JSON{}))
	if err := other.UnmarshalRegistry(registry); err != nil {
		log.Fatal(err)
	}
	back, err := other.UnmarshalVector(data)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(back)
	// Output:
	// {"entries":{"b":0.11,"c":0.21},"schema_name":"Cn"}
	// {"Cn":{"dim_names":["a","b","c"]}}
	// Cn {b: 0.11, c: 0.21}
}

// Example_archive demonstrates saving and restoring a snapshot.
func Example_archive() {
	dir, err := os.MkdirTemp("", "relevec-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	reg := relevec.NewRegistry()
	ci, _ := reg.GetOrCreate("Ci", relevec.DimCount(3))
	v, _ := relevec.NewVector(ci, relevec.At(0, 1.5), relevec.At(2, -0.25))

	arc := archive.New(blobstore.NewLocalStore(dir), archive.WithCompression(archive.CompressionZSTD))
	m, err := arc.Save(ctx, relevec.NewSerializer(reg), []*relevec.Vector{v})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(m.Vectors, m.Compression)

	snap, err := arc.Load(ctx, relevec.NewSerializer(relevec.NewRegistry()))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(snap.Vectors[0])
	// Output:
	// 1 zstd
	// Ci {0: 1.5, 2: -0.25}
}
