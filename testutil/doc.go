// Package testutil provides testing utilities for relevec.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random sparse vectors and a dense
// reference dot product to check results against.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	v, err := rng.SparseVector(schema, 32, 10_000) // 32 entries below index 10_000
//	vs, err := rng.SparseVectors(schema, 1000, 32, 10_000)
//
// # Reference Dot Product
//
//	want := testutil.DenseDot(a, b)
package testutil
