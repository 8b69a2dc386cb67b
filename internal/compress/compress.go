// Package compress handles optional per-chunk compression. Chunks are
// LZ4 frames, which carry their own length information, so the wire
// format needs no original-size field.
package compress

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// alreadyCompressed: suffixes where another pass is wasted effort.
var alreadyCompressed = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".mp3": true, ".mp4": true, ".avi": true,
	".zip": true, ".gz": true, ".bz2": true, ".rar": true, ".7z": true, ".lz4": true,
	".pdf": true, ".mpg": true, ".mpeg": true, ".ogg": true, ".flac": true,
}

// Compressible reports whether a file is worth compressing, judged by
// suffix.
func Compressible(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return !alreadyCompressed[ext]
}

// Chunk compresses one chunk into an LZ4 frame.
func Chunk(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Expand decompresses one LZ4 frame.
func Expand(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}
