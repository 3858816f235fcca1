package badger

import "strings"

// Key prefixes for different data types
const (
	sessionPrefix = "sess"
)

// makeSessionKey generates a key for a session by ID.
// Format: sess:<id>
func makeSessionKey(id string) []byte {
	return []byte(sessionPrefix + ":" + id)
}

// sessionScanPrefix is the iterator prefix covering every session key.
func sessionScanPrefix() []byte {
	return []byte(sessionPrefix + ":")
}

// sessionIDFromKey extracts the session ID from a key.
func sessionIDFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), sessionPrefix+":")
}
