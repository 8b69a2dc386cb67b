// Package transport frames NetCopy messages over a reliable byte stream:
// a u32 little-endian length prefix followed by exactly that many bytes,
// which are an encrypted envelope once StartEncryption has armed a cipher.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"dev.c0redev.netcopy/internal/crypto"
	"dev.c0redev.netcopy/internal/proto"
)

// maxFrameSize bounds the declared outer length: the payload cap plus
// header and the largest envelope overhead.
const maxFrameSize = proto.MaxPayloadSize + proto.HeaderSize + 64

var ErrFrameTooLarge = errors.New("declared frame length exceeds limit")
var ErrEmptyFrame = errors.New("zero-length frame")

// Session owns one side of a connection: the stream, the cipher once the
// handshake is done, and the outgoing sequence counter. It is used by a
// single worker; no internal locking.
type Session struct {
	conn    net.Conn
	cipher  crypto.Cipher
	nextSeq uint32
	timeout time.Duration
}

// New wraps an established stream. timeout applies per read and per
// write operation; zero disables deadlines.
func New(conn net.Conn, timeout time.Duration) *Session {
	return &Session{conn: conn, nextSeq: 1, timeout: timeout}
}

// StartEncryption arms the cipher. Every frame sent or received from now
// on is an encrypted envelope.
func (s *Session) StartEncryption(c crypto.Cipher) {
	s.cipher = c
}

// Secure reports whether frames are being encrypted.
func (s *Session) Secure() bool { return s.cipher != nil }

// RemoteAddr of the underlying stream.
func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

func (s *Session) Close() error { return s.conn.Close() }

// Send serializes, encrypts past handshake, and writes one frame.
func (s *Session) Send(m proto.Message) error {
	data := proto.Marshal(m, s.nextSeq)
	s.nextSeq++
	if s.cipher != nil {
		var err error
		data, err = s.cipher.Encrypt(data)
		if err != nil {
			return fmt.Errorf("encrypt frame: %w", err)
		}
	}
	frame := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			return err
		}
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// Receive reads one frame, decrypts past handshake, and dispatches the
// decoder. Any error is fatal to the session.
func (s *Session) Receive() (proto.Message, error) {
	if s.timeout > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return nil, err
		}
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(s.conn, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length == 0 {
		return nil, ErrEmptyFrame
	}
	if length > maxFrameSize {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, length)
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(s.conn, data); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	if s.cipher != nil {
		var err error
		data, err = s.cipher.Decrypt(data)
		if err != nil {
			return nil, fmt.Errorf("decrypt frame: %w", err)
		}
	}
	m, _, err := proto.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return m, nil
}
