package store

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// ContentHash returns the hex xxh3-128 digest of a file's contents. Files
// whose hash is unchanged since the last snapshot do not need re-indexing.
func ContentHash(src []byte) string {
	sum := xxh3.Hash128(src).Bytes()
	return hex.EncodeToString(sum[:])
}
