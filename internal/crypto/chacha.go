package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// highCipher: ChaCha20-Poly1305, 12-byte nonce || ciphertext || 16-byte tag.
type highCipher struct {
	aead cipher.AEAD
}

func newHighCipher(key []byte) (*highCipher, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	return &highCipher{aead: aead}, nil
}

func (c *highCipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *highCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < chacha20poly1305.NonceSize+c.aead.Overhead() {
		return nil, ErrCiphertextShort
	}
	nonce, ct := ciphertext[:chacha20poly1305.NonceSize], ciphertext[chacha20poly1305.NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func (c *highCipher) Suite() Suite { return SuiteHigh }
func (c *highCipher) Reset()       {}
