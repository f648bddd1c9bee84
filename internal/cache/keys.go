package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CompletionKey identifies a cached answer for one backend, model and prompt.
func CompletionKey(backend, model, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("completion:%s:%s:%s", backend, model, hex.EncodeToString(sum[:]))
}

// RateLimitKey counts requests for one API key prefix or client IP.
func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
