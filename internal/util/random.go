package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomHex returns a random hex string of the given length. Not
// cryptographic; used for event and timer identifiers.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}
	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)
	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}
	return builder.String()
}

// GenerateEventID returns an identifier shaped like the backend's calendar
// event ids.
func GenerateEventID() string {
	return GenerateRandomHex(16)
}
