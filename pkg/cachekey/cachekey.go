package cachekey

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/e"
	"github.com/zeebo/blake3"
)

// Size of a key in hex characters.
const Size = 64

var keyRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// FromPath maps a resource path onto its cache key, the hex BLAKE3-256 digest
// of the path. Replacing separators would let "a/b" and "a_b" share a key, a
// digest does not, and its fixed length is valid on every storage backend.
func FromPath(path string) (string, error) {
	if path == "" || strings.ContainsRune(path, 0) {
		return "", e.ErrMalformedKey
	}
	sum := blake3.Sum256([]byte(path))
	return hex.EncodeToString(sum[:]), nil
}

func Valid(key string) bool {
	return keyRegex.MatchString(key)
}
