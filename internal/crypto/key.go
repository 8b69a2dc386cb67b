package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// derivationSalt is fixed and published so that the same master password
// yields the same session key on both peers. That determinism is the
// point; it also means derived keys are not protected against offline
// dictionary attacks the way salted password storage would be.
var derivationSalt = []byte("NetCopySalt1234567890ABCDEFGHIJK")

// derivationIterations for PBKDF2-SHA256.
const derivationIterations = 100000

// ParseKey decodes a configured secret key: 64 hex digits, optional 0x
// prefix.
func ParseKey(s string) ([]byte, error) {
	hexKey := strings.TrimPrefix(s, "0x")
	if len(hexKey) != 2*KeySize {
		return nil, fmt.Errorf("invalid secret key length: expected %d hex characters (%d bytes), got %d",
			2*KeySize, KeySize, len(hexKey))
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("malformed secret key: %w", err)
	}
	return key, nil
}

// FormatKey renders a key the way configuration files carry it.
func FormatKey(key []byte) string {
	return "0x" + hex.EncodeToString(key)
}

// DeriveKey turns a master password into a session key.
func DeriveKey(password string) []byte {
	return pbkdf2.Key([]byte(password), derivationSalt, derivationIterations, KeySize, sha256.New)
}
