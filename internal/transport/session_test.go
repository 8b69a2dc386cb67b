package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"

	"dev.c0redev.netcopy/internal/crypto"
	"dev.c0redev.netcopy/internal/proto"
)

func pipePair(t *testing.T) (*Session, *Session) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })
	return New(a, 0), New(b, 0)
}

func exchange(t *testing.T, from, to *Session, m proto.Message) proto.Message {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- from.Send(m) }()
	got, err := to.Receive()
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	return got
}

func TestPlaintextRoundtrip(t *testing.T) {
	client, server := pipePair(t)
	req := &proto.HandshakeRequest{
		ClientVersion: "NetCopy v1.0.0",
		ClientNonce:   bytes.Repeat([]byte{7}, proto.NonceSize),
		SecurityLevel: uint8(crypto.SuiteHigh),
	}
	got := exchange(t, client, server, req).(*proto.HandshakeRequest)
	if got.ClientVersion != req.ClientVersion || !bytes.Equal(got.ClientNonce, req.ClientNonce) {
		t.Fatalf("roundtrip: %+v", got)
	}
}

func TestEncryptedRoundtripAllSuites(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, crypto.KeySize)
	for _, suite := range []crypto.Suite{crypto.SuiteHigh, crypto.SuiteFast, crypto.SuiteAES, crypto.SuiteGCM} {
		client, server := pipePair(t)
		cc, err := crypto.NewCipher(suite, key)
		if err != nil {
			t.Fatal(err)
		}
		sc, err := crypto.NewCipher(suite, key)
		if err != nil {
			t.Fatal(err)
		}
		client.StartEncryption(cc)
		server.StartEncryption(sc)

		data := &proto.FileData{Offset: 4, Data: []byte{0xde, 0xad, 0xbe, 0xef}, IsLastChunk: true}
		got := exchange(t, client, server, data).(*proto.FileData)
		if got.Offset != 4 || !bytes.Equal(got.Data, data.Data) || !got.IsLastChunk {
			t.Fatalf("%v: roundtrip %+v", suite, got)
		}
		ack := exchange(t, server, client, &proto.FileAck{BytesReceived: 8, Success: true}).(*proto.FileAck)
		if ack.BytesReceived != 8 || !ack.Success {
			t.Fatalf("%v: ack %+v", suite, ack)
		}
	}
}

func TestWrongKeyFailsDecrypt(t *testing.T) {
	client, server := pipePair(t)
	cc, _ := crypto.NewCipher(crypto.SuiteHigh, bytes.Repeat([]byte{1}, crypto.KeySize))
	sc, _ := crypto.NewCipher(crypto.SuiteHigh, bytes.Repeat([]byte{2}, crypto.KeySize))
	client.StartEncryption(cc)
	server.StartEncryption(sc)

	go client.Send(&proto.FileAck{Success: true})
	if _, err := server.Receive(); !errors.Is(err, crypto.ErrAuthentication) {
		t.Fatalf("want ErrAuthentication, got %v", err)
	}
}

func TestOversizedFrameRejected(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	sess := New(b, 0)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], maxFrameSize+1)
	go a.Write(lenBuf[:])
	if _, err := sess.Receive(); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("want ErrFrameTooLarge, got %v", err)
	}
}

func TestZeroLengthFrameRejected(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	sess := New(b, 0)

	go a.Write([]byte{0, 0, 0, 0})
	if _, err := sess.Receive(); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("want ErrEmptyFrame, got %v", err)
	}
}

func TestTruncatedStreamFails(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	sess := New(b, 0)

	go func() {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], 100)
		a.Write(lenBuf[:])
		a.Write([]byte{1, 2, 3})
		a.Close()
	}()
	if _, err := sess.Receive(); err == nil {
		t.Fatal("expected error on truncated stream")
	}
}

func TestSequenceNumbersIncrement(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	sess := New(a, 0)

	headers := make(chan proto.Header, 2)
	go func() {
		for i := 0; i < 2; i++ {
			var lenBuf [4]byte
			if _, err := io.ReadFull(b, lenBuf[:]); err != nil {
				return
			}
			data := make([]byte, binary.LittleEndian.Uint32(lenBuf[:]))
			if _, err := io.ReadFull(b, data); err != nil {
				return
			}
			_, h, err := proto.Unmarshal(data)
			if err != nil {
				return
			}
			headers <- h
		}
	}()
	if err := sess.Send(&proto.FileAck{}); err != nil {
		t.Fatal(err)
	}
	if err := sess.Send(&proto.FileAck{}); err != nil {
		t.Fatal(err)
	}
	first, second := <-headers, <-headers
	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("sequences %d, %d", first.Sequence, second.Sequence)
	}
}
