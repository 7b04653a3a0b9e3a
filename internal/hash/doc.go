// Package hash provides the checksums used to verify archive blobs.
//
// Archive manifests record the CRC32-Castagnoli (CRC32C) checksum of every
// blob they reference. Go's crc32 package uses the SSE4.2 and ARM CRC
// instructions for this polynomial when available.
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(chunk1)
//	h.Write(chunk2)
//	checksum := h.Sum32()
package hash
