// Package crypto implements the per-frame encryption suites of the
// NetCopy channel. Every suite produces a self-describing envelope: the
// per-frame nonce/IV (when the suite has one) is prepended to the cipher
// output, so the receiver needs nothing beyond the session key.
package crypto

import (
	"errors"
	"fmt"
	"strings"
)

// Suite: negotiated security level, u8 on wire.
type Suite uint8

const (
	// SuiteHigh is ChaCha20-Poly1305 with a random per-frame nonce.
	SuiteHigh Suite = 0
	// SuiteFast is a 32-byte rolling-key stream XOR. It carries no
	// authentication tag; integrity rests on transport sequencing only.
	SuiteFast Suite = 1
	// SuiteAES is AES-256-CTR with a random per-frame IV, no tag.
	SuiteAES Suite = 2
	// SuiteGCM is AES-256-GCM with a random per-frame IV.
	SuiteGCM Suite = 3
)

// KeySize: all suites take a 256-bit session key.
const KeySize = 32

var ErrKeySize = errors.New("session key must be 32 bytes")
var ErrCiphertextShort = errors.New("ciphertext too short")
var ErrAuthentication = errors.New("authentication tag verification failed")

func (s Suite) String() string {
	switch s {
	case SuiteHigh:
		return "HIGH (ChaCha20-Poly1305)"
	case SuiteFast:
		return "FAST (rolling-key XOR)"
	case SuiteAES:
		return "AES (AES-256-CTR)"
	case SuiteGCM:
		return "AES-256-GCM"
	}
	return fmt.Sprintf("suite(%d)", uint8(s))
}

// ParseSuite maps the CLI/config spelling to a suite.
func ParseSuite(s string) (Suite, error) {
	switch strings.ToLower(s) {
	case "high":
		return SuiteHigh, nil
	case "fast":
		return SuiteFast, nil
	case "aes":
		return SuiteAES, nil
	case "aes-256-gcm":
		return SuiteGCM, nil
	}
	return 0, fmt.Errorf("invalid security level %q: use 'high', 'fast', 'aes', or 'AES-256-GCM'", s)
}

// Cipher is one session's frame encryptor/decryptor. Implementations are
// single-owner: the connection worker holding the session is the only
// caller. Reset re-synchronizes stateful suites at a frame boundary; it
// is a no-op for the stateless ones.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
	Suite() Suite
	Reset()
}

// NewCipher keys a cipher for the negotiated suite.
func NewCipher(suite Suite, key []byte) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	switch suite {
	case SuiteHigh:
		return newHighCipher(key)
	case SuiteFast:
		return newFastCipher(key), nil
	case SuiteAES:
		return newCTRCipher(key)
	case SuiteGCM:
		return newGCMCipher(key)
	}
	return nil, fmt.Errorf("unsupported security level %d", uint8(suite))
}
