package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
)

// ScriptHash is the Electrum index key of an output script: its SHA-256,
// byte-reversed, hex encoded.
func ScriptHash(script []byte) string {
	sum := sha256.Sum256(script)
	slices.Reverse(sum[:])
	return hex.EncodeToString(sum[:])
}
