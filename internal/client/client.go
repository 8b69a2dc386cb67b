// Package client pushes files and directory trees to a NetCopy server
// over the encrypted framed transport.
package client

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"time"

	"dev.c0redev.netcopy/internal/bandwidth"
	"dev.c0redev.netcopy/internal/compress"
	"dev.c0redev.netcopy/internal/config"
	"dev.c0redev.netcopy/internal/crypto"
	"dev.c0redev.netcopy/internal/fileio"
	"dev.c0redev.netcopy/internal/proto"
	"dev.c0redev.netcopy/internal/transport"
)

// Version string announced in the handshake.
const Version = "NetCopy v1.0.0"

var ErrNotConnected = errors.New("not connected to server")

// PasswordPrompt supplies a master password when the server requires
// authentication and no key is configured. Defaults to a fatal error;
// the CLI installs an interactive prompt.
type PasswordPrompt func() (string, error)

// Progress is called after every acknowledged chunk.
type Progress func(sent, total uint64, path string)

type Client struct {
	cfg      config.ClientConfig
	log      *slog.Logger
	suite    crypto.Suite
	throttle bandwidth.Throttle

	Prompt   PasswordPrompt
	Progress Progress

	sess *transport.Session
}

func New(cfg config.ClientConfig, suite crypto.Suite, log *slog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		log:      log,
		suite:    suite,
		throttle: bandwidth.Throttle{Percent: cfg.MaxBandwidthPercent},
	}
}

// Connect dials the server, retrying per configuration, and runs the
// handshake. Failing to produce key material is fatal here, before any
// file request is sent.
func (c *Client) Connect(host string, port int) error {
	addr := net.JoinHostPort(host, fmt.Sprint(port))
	timeout := time.Duration(c.cfg.TimeoutSeconds) * time.Second

	var conn net.Conn
	var err error
	attempts := max(c.cfg.RetryAttempts, 1)
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.log.Warn("connect failed, retrying", "addr", addr, "attempt", i+1, "err", err)
			time.Sleep(time.Duration(c.cfg.RetryDelaySeconds) * time.Second)
		}
		conn, err = net.DialTimeout("tcp", addr, timeout)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok && c.cfg.KeepAlive {
		tc.SetKeepAlive(true)
	}

	c.sess = transport.New(conn, timeout)
	if err := c.handshake(); err != nil {
		c.Close()
		return err
	}
	c.log.Info("connected", "addr", addr)
	return nil
}

func (c *Client) Close() {
	if c.sess != nil {
		c.sess.Close()
		c.sess = nil
	}
}

func (c *Client) handshake() error {
	nonce := make([]byte, proto.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	req := &proto.HandshakeRequest{
		ClientVersion: Version,
		ClientNonce:   nonce,
		SecurityLevel: uint8(c.suite),
	}
	if err := c.sess.Send(req); err != nil {
		return err
	}
	msg, err := c.sess.Receive()
	if err != nil {
		return err
	}
	resp, ok := msg.(*proto.HandshakeResponse)
	if !ok {
		return fmt.Errorf("expected handshake response, got %T", msg)
	}
	accepted := crypto.Suite(resp.AcceptedSecurityLevel)
	c.log.Info("handshake completed", "server", resp.ServerVersion, "suite", accepted.String())

	if !resp.AuthenticationRequired {
		c.log.Warn("server does not require authentication, channel stays in cleartext")
		return nil
	}
	key, err := c.sessionKey()
	if err != nil {
		return err
	}
	cipher, err := crypto.NewCipher(accepted, key)
	if err != nil {
		return err
	}
	c.sess.StartEncryption(cipher)
	return nil
}

// sessionKey uses the configured secret key, falling back to deriving
// one from an interactively supplied master password.
func (c *Client) sessionKey() ([]byte, error) {
	if c.cfg.SecretKey != "" {
		return crypto.ParseKey(c.cfg.SecretKey)
	}
	if c.Prompt == nil {
		return nil, errors.New("server requires authentication but no secret key is configured")
	}
	password, err := c.Prompt()
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}
	return crypto.DeriveKey(password), nil
}

// TransferFile pushes one regular file. remote is the wire-format
// (forward-slash) destination path.
func (c *Client) TransferFile(local, remote string, resume bool) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	if fileio.IsDir(local) {
		return fmt.Errorf("%s is a directory, transfer it recursively", local)
	}
	size, err := fileio.Size(local)
	if err != nil {
		return err
	}

	resumeOffset, err := c.requestFile(local, remote, resume)
	if err != nil {
		return err
	}
	if resume && resumeOffset > 0 {
		c.log.Info("resuming transfer", "file", local, "dest", remote, "offset", resumeOffset)
	} else {
		c.log.Info("starting transfer", "file", local, "dest", remote, "size", size)
	}
	if err := c.sendFileData(local, resumeOffset, uint64(size)); err != nil {
		return err
	}
	c.log.Info("transfer completed", "file", local)
	return nil
}

// requestFile sends the FileRequest and returns the server's resume
// offset. The resume flag travels as the sentinel value 1; the server
// answers with the byte count it already holds.
func (c *Client) requestFile(local, remote string, resume bool) (uint64, error) {
	req := &proto.FileRequest{
		SourcePath:      fileio.ToUnix(local),
		DestinationPath: remote,
	}
	if resume {
		req.ResumeOffset = 1
	}
	if err := c.sess.Send(req); err != nil {
		return 0, err
	}
	msg, err := c.sess.Receive()
	if err != nil {
		return 0, err
	}
	resp, ok := msg.(*proto.FileResponse)
	if !ok {
		return 0, fmt.Errorf("expected file response, got %T", msg)
	}
	if !resp.Success {
		return 0, fmt.Errorf("server error: %s", resp.ErrorMessage)
	}
	return resp.ResumeOffset, nil
}

func (c *Client) sendFileData(local string, resumeOffset, total uint64) error {
	// A zero-byte file is still one (empty, last) chunk, so the server
	// creates the destination.
	if total == 0 {
		if err := c.sendChunk(&proto.FileData{Offset: 0, IsLastChunk: true}); err != nil {
			return err
		}
		if c.Progress != nil {
			c.Progress(0, 0, local)
		}
		return nil
	}

	compressible := compress.Compressible(local)
	sent := resumeOffset
	for sent < total {
		chunk, err := fileio.ReadChunk(local, int64(sent), c.cfg.BufferSize)
		if err != nil {
			return err
		}
		if len(chunk) == 0 {
			return fmt.Errorf("%s shrank during transfer at offset %d", local, sent)
		}
		data := &proto.FileData{
			Offset:      sent,
			Data:        chunk,
			IsLastChunk: sent+uint64(len(chunk)) >= total,
		}
		if compressible {
			packed, err := compress.Chunk(chunk)
			if err != nil {
				return err
			}
			data.Data = packed
			data.Compressed = true
		}
		if err := c.sendChunk(data); err != nil {
			return err
		}
		sent += uint64(len(chunk))
		if c.Progress != nil {
			c.Progress(sent, total, local)
		}
		c.throttle.Pause()
	}
	return nil
}

// sendChunk sends one FileData and waits for its ack.
func (c *Client) sendChunk(data *proto.FileData) error {
	if err := c.sess.Send(data); err != nil {
		return err
	}
	msg, err := c.sess.Receive()
	if err != nil {
		return err
	}
	ack, ok := msg.(*proto.FileAck)
	if !ok {
		return fmt.Errorf("expected file ack, got %T", msg)
	}
	if !ack.Success {
		return fmt.Errorf("transfer failed: %s", ack.ErrorMessage)
	}
	return nil
}

// TransferDirectory walks local and pushes every regular file beneath
// it, preserving the tree under remote joined with local's basename.
// Directories left empty by the file pass are materialized with the
// marker-file convention when enabled in configuration.
func (c *Client) TransferDirectory(local, remote string, resume bool) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	if !fileio.IsDir(local) {
		return fmt.Errorf("%s is not a directory", local)
	}
	entries, err := fileio.List(local)
	if err != nil {
		return err
	}
	baseRemote := fileio.JoinUnix(remote, filepath.Base(filepath.Clean(local)))

	var dirs []string
	created := map[string]bool{}
	for _, e := range entries {
		rel, err := filepath.Rel(local, e.Path)
		if err != nil {
			return err
		}
		remotePath := fileio.JoinUnix(baseRemote, fileio.ToUnix(rel))
		if e.IsDir {
			dirs = append(dirs, remotePath)
			continue
		}
		if err := c.TransferFile(e.Path, remotePath, resume); err != nil {
			return err
		}
		for dir := fileio.ParentUnix(remotePath); dir != ""; dir = fileio.ParentUnix(dir) {
			created[dir] = true
		}
	}

	if !c.cfg.CreateEmptyDirectories {
		return nil
	}
	for _, dir := range dirs {
		if !created[dir] {
			if err := c.CreateEmptyDirectory(dir); err != nil {
				return err
			}
		}
	}
	return nil
}

// CreateEmptyDirectory materializes remote on the server by pushing the
// hidden marker file; the server creates the directory and drops the
// marker.
func (c *Client) CreateEmptyDirectory(remote string) error {
	if c.sess == nil {
		return ErrNotConnected
	}
	marker := fileio.JoinUnix(remote, markerEmptyDir)
	c.log.Debug("creating empty directory", "dest", remote)
	if _, err := c.requestFile(markerSource, marker, false); err != nil {
		return err
	}
	return c.sendChunk(&proto.FileData{Offset: 0, IsLastChunk: true})
}

const markerEmptyDir = ".netcopy_empty_dir"
const markerSource = ".netcopy_dir_marker"
