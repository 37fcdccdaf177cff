package badger

import (
	"encoding/binary"

	"github.com/poiesic/finrag/core"
)

// Key prefixes for different data types
const (
	indexEntryPrefix = "idxent"
	indexMetaPrefix  = "idxmeta"
	manifestKey      = indexMetaPrefix + ":manifest"
)

// makeEntryKey generates a key for an index entry by document ID.
// Format: prefix:id, with the ID in BigEndian order so iteration follows ID order.
func makeEntryKey(id core.ID) []byte {
	prefix := []byte(indexEntryPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeManifestKey generates the key holding the build manifest.
func makeManifestKey() []byte {
	return []byte(manifestKey)
}
