package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// shortIDLength is the number of hex characters kept by ShortID.
const shortIDLength = 12

func SHA256(input string) string {
	return SHA256Bytes([]byte(input))
}

func SHA256Bytes(input []byte) string {
	hash := sha256.Sum256(input)
	return hex.EncodeToString(hash[:])
}

// ShortID returns a stable identifier for generated source, derived from its checksum.
func ShortID(source string) string {
	return SHA256(source)[:shortIDLength]
}
