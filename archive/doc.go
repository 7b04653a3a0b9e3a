// Package archive persists a registry and its vectors as snapshots in a
// blobstore.BlobStore.
//
// A snapshot is a set of blobs under snapshots/<id>/:
//
//	snapshots/<id>/registry        registry record
//	snapshots/<id>/vectors-000000  list of vector records
//	snapshots/<id>/vectors-000001  ...
//	snapshots/<id>/MANIFEST        JSON manifest (codec, compression, checksums)
//	CURRENT                        path of the latest manifest
//
// Records are encoded with the serializer's codec and every blob except
// MANIFEST and CURRENT is compressed. CURRENT is written last, so a snapshot
// becomes visible only once all of its blobs are in place.
//
//	arc := archive.New(blobstore.NewLocalStore(dir),
//	    archive.WithCompression(archive.CompressionZSTD),
//	    archive.WithConcurrency(8),
//	)
//	m, err := arc.Save(ctx, ser, vectors)
//
//	snap, err := arc.Load(ctx, relevec.NewSerializer(relevec.NewRegistry()))
//
// Load imports the saved registry strictly: it fails with
// relevec.ErrNameAlreadyRegistered if the target registry already holds one
// of the saved names.
package archive
