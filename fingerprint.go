package stackmd

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a fast, deterministic token for content change
// detection. It is not cryptographic; the only property callers may rely
// on is that identical content always yields an identical token.
func Fingerprint(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}
