package cookie

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// SignValue wraps a cookie value with a keyed BLAKE2b-256 tag: the base64url
// payload and tag joined by a dot. The secret is the connection's secret key
// base.
func SignValue(value, secret string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(value))
	return payload + "." + base64.RawURLEncoding.EncodeToString(sign(payload, secret))
}

// VerifyValue recovers the value out of a signed cookie. It reports false on
// any deviation without elaborating: the caller must treat such a cookie as
// absent.
func VerifyValue(signed, secret string) (string, bool) {
	payload, tag, ok := strings.Cut(signed, ".")
	if !ok {
		return "", false
	}

	got, err := base64.RawURLEncoding.DecodeString(tag)
	if err != nil || subtle.ConstantTimeCompare(got, sign(payload, secret)) != 1 {
		return "", false
	}

	value, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}

	return string(value), true
}

func sign(payload, secret string) []byte {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}

	mac, err := blake2b.New256(key)
	if err != nil {
		// only oversized keys fail, and those are hashed down above
		panic(err)
	}

	mac.Write([]byte(payload))

	return mac.Sum(nil)
}
