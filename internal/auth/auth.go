package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken reduces an opaque client token to the hex SHA-256 stored as
// the owner key. Raw tokens never reach the database.
func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}
