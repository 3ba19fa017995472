package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 32
	saltBytes        = 16
)

// HashPassword derives a PBKDF2-HMAC-SHA256 digest with a fresh random salt and
// returns it as "hex(digest):salt".
func HashPassword(plain string) (string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(raw)
	return hex.EncodeToString(derive(plain, salt)) + ":" + salt, nil
}

// CompareHashAndPassword reports whether plain matches a hash produced by
// HashPassword. Malformed hashes never match.
func CompareHashAndPassword(hash string, plain string) bool {
	digestHex, salt, ok := strings.Cut(hash, ":")
	if !ok || digestHex == "" || salt == "" {
		return false
	}
	want, err := hex.DecodeString(digestHex)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(want, derive(plain, salt)) == 1
}

// the salt is used as its hex text, not the decoded bytes
func derive(plain, salt string) []byte {
	return pbkdf2.Key([]byte(plain), []byte(salt), pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
}
