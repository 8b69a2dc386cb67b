package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"time"

	"dev.c0redev.netcopy/internal/compress"
	"dev.c0redev.netcopy/internal/config"
	"dev.c0redev.netcopy/internal/crypto"
	"dev.c0redev.netcopy/internal/fileio"
	"dev.c0redev.netcopy/internal/proto"
	"dev.c0redev.netcopy/internal/transport"
)

// Marker basenames that materialize an empty directory instead of a
// file.
const (
	markerEmptyDir  = ".netcopy_empty_dir"
	markerDirLegacy = ".netcopy_dir_marker"
)

var errExpectedHandshake = errors.New("expected handshake request")
var errNoTransfer = errors.New("file data without a preceding file request")

// connection is one worker's state: the framed session, the cipher it
// carries, and the destination path authorized by the latest
// FileRequest. Owned by a single goroutine.
type connection struct {
	sess *transport.Session
	cfg  config.ServerConfig
	key  []byte
	log  *slog.Logger

	currentPath string
}

func newConnection(conn net.Conn, cfg config.ServerConfig, key []byte, log *slog.Logger) *connection {
	return &connection{
		sess: transport.New(conn, time.Duration(cfg.TimeoutSeconds)*time.Second),
		cfg:  cfg,
		key:  key,
		log:  log,
	}
}

func (c *connection) run() error {
	defer c.sess.Close()

	if err := c.handshake(); err != nil {
		return err
	}
	for {
		msg, err := c.sess.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch m := msg.(type) {
		case *proto.FileRequest:
			err = c.handleFileRequest(m)
		case *proto.FileData:
			err = c.handleFileData(m)
		default:
			err = fmt.Errorf("unexpected %T in transfer state", msg)
		}
		if err != nil {
			return err
		}
	}
}

// handshake answers the opening exchange in cleartext. When require_auth
// is set it then arms the cipher for everything that follows; otherwise
// the rest of the connection stays in cleartext.
func (c *connection) handshake() error {
	msg, err := c.sess.Receive()
	if err != nil {
		return err
	}
	req, ok := msg.(*proto.HandshakeRequest)
	if !ok {
		return fmt.Errorf("%w, got %T", errExpectedHandshake, msg)
	}
	c.log.Info("handshake", "client", req.ClientVersion)

	suite := crypto.Suite(req.SecurityLevel)
	nonce := make([]byte, proto.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	resp := &proto.HandshakeResponse{
		ServerVersion:          Version,
		ServerNonce:            nonce,
		AuthenticationRequired: c.cfg.RequireAuth,
		AcceptedSecurityLevel:  req.SecurityLevel,
	}
	if err := c.sess.Send(resp); err != nil {
		return err
	}
	if c.cfg.RequireAuth {
		cipher, err := crypto.NewCipher(suite, c.key)
		if err != nil {
			return err
		}
		c.sess.StartEncryption(cipher)
		c.log.Info("secure channel established", "suite", suite.String())
	}
	return nil
}

// handleFileRequest authorizes the destination and reports the resume
// offset. Rejections travel in the response; the connection stays open.
func (c *connection) handleFileRequest(req *proto.FileRequest) error {
	c.currentPath = ""
	path, resumeOffset, err := c.prepare(req)
	if err != nil {
		c.log.Warn("file request rejected", "dest", req.DestinationPath, "err", err)
		return c.sess.Send(&proto.FileResponse{Success: false, ErrorMessage: err.Error()})
	}
	c.currentPath = path
	c.log.Info("file request", "dest", path, "resume_offset", resumeOffset)
	return c.sess.Send(&proto.FileResponse{Success: true, ResumeOffset: uint64(resumeOffset)})
}

// prepare resolves the wire path to a native destination and applies the
// path policy.
func (c *connection) prepare(req *proto.FileRequest) (string, int64, error) {
	native := fileio.ToNative(req.DestinationPath)
	if !filepath.IsAbs(native) {
		return "", 0, fmt.Errorf("Relative paths are not allowed. All paths must be absolute. Path: %s", req.DestinationPath)
	}
	resolved := filepath.Clean(native)
	if !c.allowed(resolved) {
		return "", 0, fmt.Errorf("Access denied to path: %s", req.DestinationPath)
	}

	// A destination naming a directory receives the source's basename.
	trailing := strings.HasSuffix(req.DestinationPath, "/") || strings.HasSuffix(req.DestinationPath, "\\")
	if trailing || fileio.IsDir(resolved) {
		resolved = filepath.Join(resolved, filepath.Base(fileio.ToNative(req.SourcePath)))
	}

	var resumeOffset int64
	if req.ResumeOffset > 0 {
		resumeOffset = fileio.PartialSize(resolved)
	}

	if dir := filepath.Dir(resolved); !fileio.Exists(dir) {
		if err := fileio.EnsureDir(dir); err != nil {
			return "", 0, fmt.Errorf("cannot create directory %s: %v", dir, err)
		}
	}
	return resolved, resumeOffset, nil
}

func (c *connection) allowed(path string) bool {
	for _, base := range c.cfg.AllowedPaths {
		if fileio.Within(path, filepath.Clean(fileio.ToNative(base))) {
			return true
		}
	}
	return false
}

// handleFileData applies one chunk. Write failures are reported in the
// ack and the session continues; data before any request is a protocol
// error and tears the connection down.
func (c *connection) handleFileData(d *proto.FileData) error {
	if c.currentPath == "" {
		_ = c.sess.Send(&proto.FileAck{Success: false, ErrorMessage: "no file transfer in progress"})
		return errNoTransfer
	}

	base := filepath.Base(c.currentPath)
	if base == markerEmptyDir || base == markerDirLegacy {
		// Empty-directory sentinel: make sure the directory exists and
		// never create the marker file itself.
		if err := fileio.EnsureDir(filepath.Dir(c.currentPath)); err != nil {
			return c.sess.Send(&proto.FileAck{Success: false, ErrorMessage: err.Error()})
		}
		return c.sess.Send(&proto.FileAck{
			BytesReceived: d.Offset + uint64(len(d.Data)),
			Success:       true,
		})
	}

	data := d.Data
	if d.Compressed {
		expanded, err := compress.Expand(data)
		if err != nil {
			c.log.Error("decompress chunk", "file", c.currentPath, "err", err)
			return c.sess.Send(&proto.FileAck{Success: false, ErrorMessage: "chunk decompression failed: " + err.Error()})
		}
		data = expanded
	}

	if c.cfg.MaxFileSize > 0 && d.Offset+uint64(len(data)) > c.cfg.MaxFileSize {
		return c.sess.Send(&proto.FileAck{Success: false, ErrorMessage: "file exceeds configured size limit"})
	}

	if err := fileio.WriteChunk(c.currentPath, int64(d.Offset), data); err != nil {
		c.log.Error("write chunk", "file", c.currentPath, "err", err)
		return c.sess.Send(&proto.FileAck{Success: false, ErrorMessage: err.Error()})
	}
	if d.IsLastChunk {
		c.log.Info("file received", "file", c.currentPath, "bytes", d.Offset+uint64(len(data)))
	}
	return c.sess.Send(&proto.FileAck{
		BytesReceived: d.Offset + uint64(len(data)),
		Success:       true,
	})
}
