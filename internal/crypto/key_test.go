package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseKey(t *testing.T) {
	hexKey := strings.Repeat("ab", KeySize)
	for _, in := range []string{hexKey, "0x" + hexKey} {
		key, err := ParseKey(in)
		if err != nil {
			t.Fatal(err)
		}
		if len(key) != KeySize || key[0] != 0xab {
			t.Fatalf("ParseKey(%q) = %x", in, key)
		}
	}
}

func TestParseKeyErrors(t *testing.T) {
	for _, in := range []string{"", "abcd", "0x" + strings.Repeat("ab", 31), strings.Repeat("zz", KeySize)} {
		if _, err := ParseKey(in); err == nil {
			t.Fatalf("ParseKey(%q): expected error", in)
		}
	}
}

func TestFormatKeyRoundtrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x1f}, KeySize)
	got, err := ParseKey(FormatKey(key))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("roundtrip: %x", got)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	a := DeriveKey("master password")
	b := DeriveKey("master password")
	if len(a) != KeySize {
		t.Fatalf("derived key length %d", len(a))
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same password must derive the same key")
	}
	if bytes.Equal(a, DeriveKey("other password")) {
		t.Fatal("different passwords must derive different keys")
	}
}

func TestDerivedKeyUsable(t *testing.T) {
	key := DeriveKey("hunter2")
	c, err := NewCipher(SuiteHigh, key)
	if err != nil {
		t.Fatal(err)
	}
	ct, err := c.Encrypt([]byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Decrypt(ct); err != nil {
		t.Fatal(err)
	}
}
