package objectstore

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)

	// now is a seam for tests.
	now = time.Now
)

// NewKey returns a fresh key namespaced by owner: "<owner>/<ULID>.<ext>".
// ULIDs share a monotonic entropy source, so keys generated by one process
// sort strictly by creation even inside the same millisecond.
func NewKey(ownerID, ext string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now()), entropy)
	entropyMu.Unlock()

	owner := strings.ReplaceAll(strings.TrimSpace(ownerID), "/", "_")
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return owner + "/" + id.String()
	}
	return owner + "/" + id.String() + "." + ext
}

// DetectType returns the content type to store body with and the matching
// file extension. A non-empty declared type wins; the extension is still
// derived from the bytes.
func DetectType(body []byte, declared string) (contentType, ext string) {
	m := mimetype.Detect(body)
	contentType = strings.TrimSpace(declared)
	if contentType == "" {
		contentType = m.String()
	}
	return contentType, strings.TrimPrefix(m.Extension(), ".")
}

// Digest is the hex BLAKE2b-256 of body, stored as object metadata.
func Digest(body []byte) string {
	sum := blake2b.Sum256(body)
	return hex.EncodeToString(sum[:])
}
