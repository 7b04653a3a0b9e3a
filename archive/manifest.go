package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormatVersion is the manifest version written by this package.
const FormatVersion = 1

const (
	// CurrentName is the blob holding the path of the latest manifest.
	CurrentName = "CURRENT"
	// ManifestName is the manifest blob inside a snapshot.
	ManifestName = "MANIFEST"

	registryName   = "registry"
	snapshotsDir   = "snapshots/"
	chunkNameStart = "vectors-"
)

// Manifest describes one saved snapshot.
type Manifest struct {
	Version     int        `json:"version"`
	ID          string     `json:"id"`
	Codec       string     `json:"codec"`
	Compression string     `json:"compression"`
	CreatedAt   time.Time  `json:"created_at"`
	Vectors     int        `json:"vectors"`
	Registry    BlobInfo   `json:"registry"`
	Chunks      []BlobInfo `json:"chunks"`
}

// BlobInfo locates and verifies one snapshot blob.
type BlobInfo struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Checksum uint32 `json:"crc32c"`
	// Count is the number of vectors in a chunk.
	Count int `json:"count,omitempty"`
}

func snapshotPrefix(id string) string {
	return snapshotsDir + id + "/"
}

func manifestPath(id string) string {
	return snapshotPrefix(id) + ManifestName
}

func chunkPath(id string, i int) string {
	return fmt.Sprintf("%s%s%06d", snapshotPrefix(id), chunkNameStart, i)
}

// parseManifestPath returns the snapshot id of a manifest blob path.
func parseManifestPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, snapshotsDir)
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/"+ManifestName)
	if !ok || validateID(id) != nil {
		return "", false
	}
	return id, true
}

func validateID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	// Only the canonical form maps to a blob path.
	if u.String() != id {
		return fmt.Errorf("non-canonical id %q", id)
	}
	return nil
}
