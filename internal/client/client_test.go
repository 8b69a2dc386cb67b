package client

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"dev.c0redev.netcopy/internal/config"
	"dev.c0redev.netcopy/internal/crypto"
)

func newTestClient(cfg config.ClientConfig) *Client {
	return New(cfg, crypto.SuiteHigh, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNotConnected(t *testing.T) {
	c := newTestClient(config.DefaultClient())
	if err := c.TransferFile("/src", "/dst", false); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("TransferFile: %v", err)
	}
	if err := c.TransferDirectory("/src", "/dst", false); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("TransferDirectory: %v", err)
	}
	if err := c.CreateEmptyDirectory("/dst"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("CreateEmptyDirectory: %v", err)
	}
}

func TestSessionKeyFromConfig(t *testing.T) {
	cfg := config.DefaultClient()
	cfg.SecretKey = "0x" + strings.Repeat("ef", crypto.KeySize)
	c := newTestClient(cfg)
	key, err := c.sessionKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != crypto.KeySize || key[0] != 0xef {
		t.Fatalf("key %x", key)
	}
}

func TestSessionKeyFromPrompt(t *testing.T) {
	c := newTestClient(config.DefaultClient())
	c.Prompt = func() (string, error) { return "master password", nil }
	key, err := c.sessionKey()
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != crypto.KeySize {
		t.Fatalf("key length %d", len(key))
	}
}

func TestSessionKeyMissing(t *testing.T) {
	c := newTestClient(config.DefaultClient())
	if _, err := c.sessionKey(); err == nil {
		t.Fatal("expected error with no key and no prompt")
	}
	c.Prompt = func() (string, error) { return "", nil }
	if _, err := c.sessionKey(); err == nil {
		t.Fatal("expected error for empty password")
	}
}
