// Package token generates opaque magic-link tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/cockroachdb/errors"
)

// Size is the number of random bytes behind a token.
const Size = 32

// New returns Size random bytes as lowercase hex.
func New() (string, error) {
	b := make([]byte, Size)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return hex.EncodeToString(b), nil
}
