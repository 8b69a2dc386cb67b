// Package proto implements the NetCopy wire protocol: a fixed 16-byte
// little-endian header followed by a typed payload.
package proto

// Kind: message type, u32 on wire.
type Kind uint32

const (
	KindHandshakeRequest  Kind = 1
	KindHandshakeResponse Kind = 2
	KindFileRequest       Kind = 3
	KindFileResponse      Kind = 4
	KindFileData          Kind = 5
	KindFileAck           Kind = 6
	KindResumeRequest     Kind = 7 // reserved, never emitted
	KindResumeResponse    Kind = 8 // reserved, never emitted
	KindError             Kind = 9
)

// HeaderSize: kind + payload_length + sequence + reserved, 4 bytes each.
const HeaderSize = 16

// MaxPayloadSize 16MiB.
const MaxPayloadSize = 1024 * 1024 * 16

// NonceSize is the handshake nonce length on both sides.
const NonceSize = 16

// Header precedes every payload. Reserved is written as zero and ignored
// on read.
type Header struct {
	Kind          Kind
	PayloadLength uint32
	Sequence      uint32
	Reserved      uint32
}

// Message is the closed set of wire message variants.
type Message interface {
	Kind() Kind
	appendPayload(b []byte) []byte
	decodePayload(p []byte) error
}

// HandshakeRequest opens a connection; sent in cleartext.
type HandshakeRequest struct {
	ClientVersion string
	ClientNonce   []byte
	SecurityLevel uint8
}

// HandshakeResponse answers a HandshakeRequest; sent in cleartext.
type HandshakeResponse struct {
	ServerVersion          string
	ServerNonce            []byte
	AuthenticationRequired bool
	AcceptedSecurityLevel  uint8
}

// FileRequest announces the next file. ResumeOffset on the request is a
// flag: zero means fresh transfer, any non-zero value asks the server to
// report how many bytes it already has.
type FileRequest struct {
	SourcePath      string
	DestinationPath string
	Recursive       bool
	ResumeOffset    uint64
}

// FileResponse authorizes (or rejects) a FileRequest. FileSize is
// reserved and written as zero. ResumeOffset is the byte count already on
// disk, zero unless resume was requested.
type FileResponse struct {
	Success      bool
	ErrorMessage string
	FileSize     uint64
	ResumeOffset uint64
}

// FileData carries one chunk. Offset is the position of the raw
// (pre-compression) bytes in the destination file.
type FileData struct {
	Offset      uint64
	Data        []byte
	IsLastChunk bool
	Compressed  bool
}

// FileAck acknowledges one FileData.
type FileAck struct {
	BytesReceived uint64
	Success       bool
	ErrorMessage  string
}

// ErrorMessage reports a protocol-level failure.
type ErrorMessage struct {
	ErrorCode        uint32
	ErrorDescription string
}

func (*HandshakeRequest) Kind() Kind  { return KindHandshakeRequest }
func (*HandshakeResponse) Kind() Kind { return KindHandshakeResponse }
func (*FileRequest) Kind() Kind       { return KindFileRequest }
func (*FileResponse) Kind() Kind      { return KindFileResponse }
func (*FileData) Kind() Kind          { return KindFileData }
func (*FileAck) Kind() Kind           { return KindFileAck }
func (*ErrorMessage) Kind() Kind      { return KindError }
