// Package compress implements the block format used for archive blobs.
//
// Each block is [UncompressedSize uint32][CompressedSize uint32][Data...],
// little endian. CompressedSize 0 means Data is stored uncompressed.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type defines the compression algorithm used.
type Type uint8

const (
	// None stores blocks uncompressed.
	None Type = 0
	// LZ4 is fast with a moderate ratio.
	LZ4 Type = 1
	// ZSTD has a better ratio at a higher CPU cost.
	ZSTD Type = 2
)

// String returns the stable name of the compression type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseType returns the Type with the given stable name.
func ParseType(name string) (Type, error) {
	switch name {
	case "none", "":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("unknown compression %q", name)
	}
}

// ErrCorrupt is returned when a block cannot be decoded.
var ErrCorrupt = errors.New("corrupt compressed block")

const headerSize = 8

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Encode wraps data in a block, compressed with t when that saves space.
func Encode(data []byte, t Type) ([]byte, error) {
	if len(data) > math.MaxUint32 {
		return nil, fmt.Errorf("block of %d bytes exceeds format limit", len(data))
	}

	var compressed []byte
	switch t {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown compression type %d", t)
	}

	// Keep the raw bytes if compression doesn't help (ratio > 0.9).
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		return frame(data, uint32(len(data)), 0), nil
	}
	return frame(compressed, uint32(len(data)), uint32(len(compressed))), nil
}

func frame(payload []byte, size, compressedSize uint32) []byte {
	out := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(out[0:], size)
	binary.LittleEndian.PutUint32(out[4:], compressedSize)
	copy(out[headerSize:], payload)
	return out
}

// Decode returns the payload of a block written by Encode with the same t.
func Decode(block []byte, t Type) ([]byte, error) {
	if len(block) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(block))
	}
	size := binary.LittleEndian.Uint32(block[0:])
	compressedSize := binary.LittleEndian.Uint32(block[4:])
	body := block[headerSize:]

	if compressedSize == 0 {
		if uint64(len(body)) != uint64(size) {
			return nil, fmt.Errorf("%w: stored size %d, have %d", ErrCorrupt, size, len(body))
		}
		return body, nil
	}
	if uint64(len(body)) != uint64(compressedSize) {
		return nil, fmt.Errorf("%w: compressed size %d, have %d", ErrCorrupt, compressedSize, len(body))
	}

	switch t {
	case LZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if uint32(len(out)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed block but compression is %s", ErrCorrupt, t)
	}
}
