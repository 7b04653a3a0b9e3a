// Package relevec provides sparse float64 vectors over runtime-defined
// dimension schemas, and a portable record format for both.
//
// # Schemas
//
// A Schema describes which dimension indices are legal:
//
//   - Unconstrained: any non-negative index
//   - Bounded: indices in [0, count)
//   - Named: indices in [0, len(names)), each with a name
//
// Schemas are created and looked up through a Registry:
//
//	reg := relevec.NewRegistry()
//	cn, _ := reg.GetOrCreate("Cn", relevec.DimNames("a", "b", "c"))
//	ci, _ := reg.GetOrCreate("Ci", relevec.DimCount(3))
//
// Registry names start with an uppercase letter, or with '_' followed by an
// uppercase letter. A name is bound once and never replaced.
//
// # Vectors
//
// A Vector stores only the dimensions that were set; every other index reads
// as 0.0:
//
//	v, _ := relevec.NewVector(cn, relevec.Named("a", 0.3), relevec.Named("b", 0.4))
//	v.Normalize()
//	b, _ := v.GetByName("b")
//
// Dot products require both vectors to reference the same *Schema.
//
// # Records
//
// A Serializer converts vectors and the registry to the interchange records
//
//	vector:   {"schema_name": "Cn", "entries": {"a": 0.6, "b": 0.8}}
//	schema:   {} | {"dim_count": 3} | {"dim_names": ["a", "b", "c"]}
//	registry: {"Ci": {"dim_count": 3}, "Cn": {"dim_names": [...]}}
//
// and encodes them with a codec.Codec. Importing is strict: registry entries
// must not already exist, and a vector's schema must be registered first.
//
//	ser := relevec.NewSerializer(reg, relevec.WithCodec(codec.YAML{}))
//	data, _ := ser.MarshalVector(v)
//	back, _ := ser.UnmarshalVector(data)
//
// The archive package persists a registry and its vectors to a blobstore.
package relevec
