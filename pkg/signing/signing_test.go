package signing

import (
	"strconv"
	"testing"
	"time"
)

const testSecret = "super-secret-value"

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func flipBit(s string, byteIdx int, bit uint) string {
	b := []byte(s)
	b[byteIdx] ^= 1 << bit
	return string(b)
}

func TestVerifyVideoExample(t *testing.T) {
	sig := Sign([]byte(testSecret), "videos/42.mp4", "1999999999")

	tables := []struct {
		name     string
		now      int64
		expected bool
	}{
		{"well before expiry", 1700000000, true},
		{"at expiry second", 1999999999, true},
		{"after expiry", 2000000000, false},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			v := NewVerifier(testSecret, "")
			v.Now = fixedClock(table.now)
			if got := v.VerifyVideo("videos/42.mp4", "1999999999", sig); got != table.expected {
				t.Errorf("VerifyVideo() = %v, want %v", got, table.expected)
			}
		})
	}
}

func TestVerifyVideoMutations(t *testing.T) {
	v := NewVerifier(testSecret, "")
	v.Now = fixedClock(1700000000)

	path := "videos/42.mp4"
	expiry := "1999999999"
	sig := Sign([]byte(testSecret), path, expiry)

	if !v.VerifyVideo(path, expiry, sig) {
		t.Fatal("expected untouched token to verify")
	}

	// Any bit flip in the signature either breaks the hex format or the MAC.
	for i := 0; i < len(sig); i++ {
		for bit := uint(0); bit < 8; bit++ {
			if v.VerifyVideo(path, expiry, flipBit(sig, i, bit)) {
				t.Fatalf("mutated signature (byte %d bit %d) verified", i, bit)
			}
		}
	}
	for i := 0; i < len(path); i++ {
		for bit := uint(0); bit < 8; bit++ {
			if v.VerifyVideo(flipBit(path, i, bit), expiry, sig) {
				t.Fatalf("mutated path (byte %d bit %d) verified", i, bit)
			}
		}
	}
	for i := 0; i < len(expiry); i++ {
		for bit := uint(0); bit < 8; bit++ {
			if v.VerifyVideo(path, flipBit(expiry, i, bit), sig) {
				t.Fatalf("mutated expiry (byte %d bit %d) verified", i, bit)
			}
		}
	}
}

func TestVerifyVideoRejectsMalformedInput(t *testing.T) {
	v := NewVerifier(testSecret, "")
	v.Now = fixedClock(1700000000)
	expiry := strconv.FormatInt(1800000000, 10)
	sig := Sign([]byte(testSecret), "a.mp4", expiry)

	tables := []struct {
		name   string
		path   string
		expiry string
		sig    string
	}{
		{"missing expiry", "a.mp4", "", sig},
		{"non numeric expiry", "a.mp4", "tomorrow", sig},
		{"negative expiry", "a.mp4", "-5", sig},
		{"missing path", "", expiry, sig},
		{"uppercase hex", "a.mp4", expiry, "AB" + sig[2:]},
		{"short signature", "a.mp4", expiry, sig[:63]},
		{"long signature", "a.mp4", expiry, sig + "0"},
		{"empty signature", "a.mp4", expiry, ""},
		{"past expiry with correct signature", "a.mp4", "1600000000", Sign([]byte(testSecret), "a.mp4", "1600000000")},
		{"wrong secret", "a.mp4", expiry, Sign([]byte("other"), "a.mp4", expiry)},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			if v.VerifyVideo(table.path, table.expiry, table.sig) {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestVerifyThumbnail(t *testing.T) {
	shared := NewVerifier(testSecret, "")
	isolated := NewVerifier(testSecret, "thumb-secret")

	sharedSig := Sign([]byte(testSecret), "-100123", "77")
	isolatedSig := Sign([]byte("thumb-secret"), "-100123", "77")

	tables := []struct {
		name     string
		verifier *Verifier
		chatID   string
		msgID    string
		sig      string
		expected bool
	}{
		{"shared secret", shared, "-100123", "77", sharedSig, true},
		{"isolated secret", isolated, "-100123", "77", isolatedSig, true},
		{"isolated verifier rejects shared signature", isolated, "-100123", "77", sharedSig, false},
		{"swapped ids", shared, "77", "-100123", sharedSig, false},
		{"other message", shared, "-100123", "78", sharedSig, false},
		{"garbage signature", shared, "-100123", "77", "zz", false},
		{"missing chat", shared, "", "77", sharedSig, false},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			if got := table.verifier.VerifyThumbnail(table.chatID, table.msgID, table.sig); got != table.expected {
				t.Errorf("VerifyThumbnail() = %v, want %v", got, table.expected)
			}
		})
	}
}

func TestEmptySecretNeverVerifies(t *testing.T) {
	v := NewVerifier("", "")
	sig := Sign(nil, "-1", "1")
	if v.VerifyThumbnail("-1", "1", sig) {
		t.Fatal("empty secret must fail closed")
	}
}
