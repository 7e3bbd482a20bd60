// Package auth verifies seat credentials. Token issuance happens elsewhere;
// rooms store only a one-way hash and requests carry the plain token.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrBadCredential indicates the submitted token does not match the seat's
// stored credential.
var ErrBadCredential = errors.New("auth: bad credential")

// HashToken returns the hex sha256 of a token, the form stored on a seat.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Verify checks a submitted token against a stored credential, accepting
// either a direct match (legacy plaintext credential) or a hash match.
func Verify(token, stored string) error {
	if token == "" || stored == "" {
		return ErrBadCredential
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(stored)) == 1 {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(stored)) == 1 {
		return nil
	}
	return ErrBadCredential
}
