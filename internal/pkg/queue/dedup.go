package queue

import (
	"crypto/sha512"
	"encoding/base64"
	"strconv"
	"time"
)

// DeduplicationID hashes body salted with the unix millisecond of at.
//
// Two sends of the same body only share an id when they happen in the same
// millisecond, so this does not give content-based deduplication across time.
// ContentDeduplicationID does.
func DeduplicationID(body string, at time.Time) string {
	return hash(body + strconv.FormatInt(at.UnixMilli(), 10))
}

// ContentDeduplicationID hashes body alone, so identical bodies sent within
// the service's dedup window are collapsed into one message.
func ContentDeduplicationID(body string) string {
	return hash(body)
}

func hash(s string) string {
	sum := sha512.Sum512([]byte(s))
	return base64.StdEncoding.EncodeToString(sum[:])
}
