package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HashString computes an HMAC-SHA256 signature over data using hashKey and
// returns it hex-encoded. It is used for user password hashes, which are
// compared with [CompareHash].
//
//	signature := utils.HashString("some data", "my-secret-key")
func HashString(data string, hashKey string) string {
	hasher := hmac.New(sha256.New, []byte(hashKey))
	hasher.Write([]byte(data))
	return hex.EncodeToString(hasher.Sum(nil))
}

// CompareHash reports whether hash is the HMAC-SHA256 of data under hashKey.
// The comparison runs in constant time.
func CompareHash(data, hash, hashKey string) bool {
	expected := HashString(data, hashKey)
	return hmac.Equal([]byte(expected), []byte(hash))
}
