package crypto

// fastCipher XORs data against a 32-byte key that rolls forward every
// 1024-byte block. The key schedule restarts from the base key at each
// frame, so every frame is independently decryptable and no per-frame
// prefix is carried on the wire.
type fastCipher struct {
	base    [KeySize]byte
	current [KeySize]byte
	rounds  uint64
}

const fastBlockSize = 1024

func newFastCipher(key []byte) *fastCipher {
	c := &fastCipher{}
	copy(c.base[:], key)
	c.Reset()
	return c
}

func (c *fastCipher) Encrypt(plaintext []byte) ([]byte, error) {
	c.Reset()
	return c.process(plaintext), nil
}

func (c *fastCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	c.Reset()
	return c.process(ciphertext), nil
}

// process XORs block by block, rolling the key between blocks.
func (c *fastCipher) process(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	for pos := 0; pos < len(out); pos += fastBlockSize {
		end := min(pos+fastBlockSize, len(out))
		for i := pos; i < end; i++ {
			out[i] ^= c.current[(i-pos)%KeySize]
		}
		if end < len(out) {
			c.roll()
		}
	}
	return out
}

func (c *fastCipher) roll() {
	c.rounds++
	for i := range c.current {
		c.current[i] ^= byte(c.rounds*31 + uint64(i)*17)
		c.current[i] = c.current[i]<<1 | c.current[i]>>7
	}
}

func (c *fastCipher) Suite() Suite { return SuiteFast }

func (c *fastCipher) Reset() {
	c.current = c.base
	c.rounds = 0
}
