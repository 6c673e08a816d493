package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomString returns a hex string of the requested length. Used for the
// random component of stored image filenames.
func RandomString(length int) string {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
