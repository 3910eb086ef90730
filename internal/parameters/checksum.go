package parameters

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Checksum is a BLAKE2b-256 digest of a whole artifact.
type Checksum [blake2b.Size256]byte

// Sum returns the checksum of data.
func Sum(data []byte) Checksum {
	return blake2b.Sum256(data)
}

// ParseChecksum decodes a hex checksum as written in a catalog.
func ParseChecksum(s string) (Checksum, error) {
	var c Checksum
	raw, err := hex.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("invalid checksum %q: %w", s, err)
	}
	if len(raw) != len(c) {
		return c, fmt.Errorf("invalid checksum %q: %d bytes, expected %d", s, len(raw), len(c))
	}
	copy(c[:], raw)
	return c, nil
}

func (c Checksum) String() string {
	return hex.EncodeToString(c[:])
}

// Matches reports whether data hashes to c.
func (c Checksum) Matches(data []byte) bool {
	return Sum(data) == c
}
