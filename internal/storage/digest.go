package storage

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
)

// digestWindow bounds how much of the stream is fed to the hash per read
// pass, keeping memory flat for arbitrarily large blobs.
const digestWindow = 100 << 20 // 100 MiB

// Digest hashes the full content of r and returns the lowercase hex SHA-1
// together with the number of bytes read. The stream is rewound to the start
// both before and after hashing so later consumers see it unconsumed.
func Digest(r io.ReadSeeker) (string, int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	h := sha1.New()
	var total int64
	for {
		n, err := io.CopyN(h, r, digestWindow)
		total += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", 0, err
		}
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), total, nil
}
