package redis

import "fmt"

// Key prefix for all client data
const keyPrefix = "clickpot"

// Hash fields of the cache record
const (
	fieldCredential = "credential"
	fieldIdentity   = "identity"
	fieldLanguage   = "language"
	fieldCookies    = "cookies"
)

// cacheKey returns the Redis key for the cache HASH of a profile
func cacheKey(profile string) string {
	return fmt.Sprintf("%s:cache:%s", keyPrefix, profile)
}
