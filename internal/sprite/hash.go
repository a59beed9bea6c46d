// Package sprite holds pieces shared by the raster and vector sheet
// builders.
package sprite

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash fingerprints final encoded bytes for change detection.
// Eight hex characters is plenty for cache busting; this is not a
// security boundary.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:8]
}
