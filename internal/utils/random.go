package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomString returns a cryptographically random alphanumeric string of
// length n.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid random string length %d", n)
	}

	limit := big.NewInt(int64(len(alphanumeric)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("error reading random source: %w", err)
		}
		buf[i] = alphanumeric[idx.Int64()]
	}

	return string(buf), nil
}
