// Package signing verifies the capability tokens that authorize media
// requests. Tokens are lowercase hex HMAC-SHA256 digests over
// "subject:suffix", where the suffix is the expiry for video requests and the
// message id for thumbnails.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"time"
)

var signatureRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)

type Verifier struct {
	Secret []byte
	// ThumbnailSecret isolates the thumbnail scheme when set, otherwise
	// Secret is used for both.
	ThumbnailSecret []byte
	Now             func() time.Time
}

func NewVerifier(secret, thumbnailSecret string) *Verifier {
	v := &Verifier{Secret: []byte(secret), Now: time.Now}
	if thumbnailSecret != "" {
		v.ThumbnailSecret = []byte(thumbnailSecret)
	}
	return v
}

// Sign returns the hex MAC of subject + ":" + suffix.
func Sign(secret []byte, subject, suffix string) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(subject + ":" + suffix))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyVideo reports whether sig authorizes filePath until expiry. The
// expiry second itself is still valid.
func (v *Verifier) VerifyVideo(filePath, expiry, sig string) bool {
	if filePath == "" || expiry == "" {
		return false
	}
	exp, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil || exp < 0 {
		return false
	}
	if v.now().Unix() > exp {
		return false
	}
	return verify(v.Secret, filePath, expiry, sig)
}

// VerifyThumbnail reports whether sig authorizes the thumbnail of messageID in
// chatID. Thumbnail tokens never expire.
func (v *Verifier) VerifyThumbnail(chatID, messageID, sig string) bool {
	if chatID == "" || messageID == "" {
		return false
	}
	secret := v.ThumbnailSecret
	if len(secret) == 0 {
		secret = v.Secret
	}
	return verify(secret, chatID, messageID, sig)
}

func (v *Verifier) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

func verify(secret []byte, subject, suffix, sig string) bool {
	if len(secret) == 0 || !signatureRegex.MatchString(sig) {
		return false
	}
	expected := Sign(secret, subject, suffix)
	return hmac.Equal([]byte(expected), []byte(sig))
}
