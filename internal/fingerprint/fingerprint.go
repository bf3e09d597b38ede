// Package fingerprint computes the content identity used for deduplication.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// ChunkSize is the read size used while hashing. Memory use stays constant
// regardless of the content length.
const ChunkSize = 4096

// Sum reads r to the end and returns the lowercase hex SHA-256 digest together
// with the number of bytes read.
func Sum(r io.Reader) (string, int64, error) {
	w := NewWriter()
	n, err := io.CopyBuffer(w, r, make([]byte, ChunkSize))
	if err != nil {
		return "", n, fmt.Errorf("failed to hash content: %w", err)
	}
	return w.Digest(), n, nil
}

// File hashes the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	digest, _, err := Sum(f)
	return digest, err
}

// Writer accumulates a digest over everything written to it, so a stream can be
// hashed while it is copied elsewhere through io.MultiWriter.
type Writer struct {
	h hash.Hash
	n int64
}

func NewWriter() *Writer {
	return &Writer{h: sha256.New()}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.h.Write(p)
	w.n += int64(n)
	return n, err
}

// Digest returns the hex digest of everything written so far.
func (w *Writer) Digest() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

// Len returns the number of bytes written.
func (w *Writer) Len() int64 {
	return w.n
}

// Valid reports whether s looks like a digest produced by this package.
func Valid(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
