package proto

import "fmt"

// Marshal serializes header + payload for one message.
func Marshal(m Message, sequence uint32) []byte {
	payload := m.appendPayload(nil)
	b := make([]byte, 0, HeaderSize+len(payload))
	b = appendUint32(b, uint32(m.Kind()))
	b = appendUint32(b, uint32(len(payload)))
	b = appendUint32(b, sequence)
	b = appendUint32(b, 0)
	return append(b, payload...)
}

// Unmarshal parses a header and dispatches the payload decoder by kind.
// Bytes beyond the declared payload length are ignored.
func Unmarshal(data []byte) (Message, Header, error) {
	var h Header
	if len(data) < HeaderSize {
		return nil, h, ErrTruncated
	}
	r := &reader{buf: data}
	h.Kind = Kind(r.u32())
	h.PayloadLength = r.u32()
	h.Sequence = r.u32()
	h.Reserved = r.u32()
	if h.PayloadLength > MaxPayloadSize {
		return nil, h, ErrPayloadTooLarge
	}
	if len(data) < HeaderSize+int(h.PayloadLength) {
		return nil, h, ErrTruncated
	}
	payload := data[HeaderSize : HeaderSize+int(h.PayloadLength)]

	var m Message
	switch h.Kind {
	case KindHandshakeRequest:
		m = &HandshakeRequest{}
	case KindHandshakeResponse:
		m = &HandshakeResponse{}
	case KindFileRequest:
		m = &FileRequest{}
	case KindFileResponse:
		m = &FileResponse{}
	case KindFileData:
		m = &FileData{}
	case KindFileAck:
		m = &FileAck{}
	case KindError:
		m = &ErrorMessage{}
	default:
		return nil, h, fmt.Errorf("%w: %d", ErrUnknownKind, uint32(h.Kind))
	}
	if err := m.decodePayload(payload); err != nil {
		return nil, h, err
	}
	return m, h, nil
}

func (m *HandshakeRequest) appendPayload(b []byte) []byte {
	b = appendString(b, m.ClientVersion)
	b = appendBytes(b, m.ClientNonce)
	return append(b, m.SecurityLevel)
}

func (m *HandshakeRequest) decodePayload(p []byte) error {
	r := &reader{buf: p}
	m.ClientVersion = r.str()
	m.ClientNonce = r.blob()
	m.SecurityLevel = r.u8()
	return r.err
}

func (m *HandshakeResponse) appendPayload(b []byte) []byte {
	b = appendString(b, m.ServerVersion)
	b = appendBytes(b, m.ServerNonce)
	b = appendBool(b, m.AuthenticationRequired)
	return append(b, m.AcceptedSecurityLevel)
}

func (m *HandshakeResponse) decodePayload(p []byte) error {
	r := &reader{buf: p}
	m.ServerVersion = r.str()
	m.ServerNonce = r.blob()
	m.AuthenticationRequired = r.flag()
	m.AcceptedSecurityLevel = r.u8()
	return r.err
}

func (m *FileRequest) appendPayload(b []byte) []byte {
	b = appendString(b, m.SourcePath)
	b = appendString(b, m.DestinationPath)
	b = appendBool(b, m.Recursive)
	return appendUint64(b, m.ResumeOffset)
}

func (m *FileRequest) decodePayload(p []byte) error {
	r := &reader{buf: p}
	m.SourcePath = r.str()
	m.DestinationPath = r.str()
	m.Recursive = r.flag()
	m.ResumeOffset = r.u64()
	return r.err
}

func (m *FileResponse) appendPayload(b []byte) []byte {
	b = appendBool(b, m.Success)
	b = appendString(b, m.ErrorMessage)
	b = appendUint64(b, m.FileSize)
	return appendUint64(b, m.ResumeOffset)
}

func (m *FileResponse) decodePayload(p []byte) error {
	r := &reader{buf: p}
	m.Success = r.flag()
	m.ErrorMessage = r.str()
	m.FileSize = r.u64()
	m.ResumeOffset = r.u64()
	return r.err
}

func (m *FileData) appendPayload(b []byte) []byte {
	b = appendUint64(b, m.Offset)
	b = appendBytes(b, m.Data)
	b = appendBool(b, m.IsLastChunk)
	return appendBool(b, m.Compressed)
}

func (m *FileData) decodePayload(p []byte) error {
	r := &reader{buf: p}
	m.Offset = r.u64()
	m.Data = r.blob()
	m.IsLastChunk = r.flag()
	m.Compressed = r.flag()
	return r.err
}

func (m *FileAck) appendPayload(b []byte) []byte {
	b = appendUint64(b, m.BytesReceived)
	b = appendBool(b, m.Success)
	return appendString(b, m.ErrorMessage)
}

func (m *FileAck) decodePayload(p []byte) error {
	r := &reader{buf: p}
	m.BytesReceived = r.u64()
	m.Success = r.flag()
	m.ErrorMessage = r.str()
	return r.err
}

func (m *ErrorMessage) appendPayload(b []byte) []byte {
	b = appendUint32(b, m.ErrorCode)
	return appendString(b, m.ErrorDescription)
}

func (m *ErrorMessage) decodePayload(p []byte) error {
	r := &reader{buf: p}
	m.ErrorCode = r.u32()
	m.ErrorDescription = r.str()
	return r.err
}
