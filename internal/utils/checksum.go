package utils

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// HashType selects the digest computed by CalculateChecksum
type HashType string

const (
	// MD5 identifies dashboard resources
	MD5 HashType = "md5"
	// SHA256 fingerprints downloaded assets in logs
	SHA256 HashType = "sha256"
)

// CalculateChecksum returns the hex digest of data
func CalculateChecksum(data []byte, hashType HashType) string {
	var h hash.Hash
	if hashType == MD5 {
		h = md5.New()
	} else {
		h = sha256.New()
	}

	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
