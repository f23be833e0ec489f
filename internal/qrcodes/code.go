// Package qrcodes manages per-participant check-in tokens and the check-in
// flow itself. The short code is what the QR image encodes; the image is
// rendered and stored asynchronously.
package qrcodes

import (
	"crypto/rand"
	"fmt"
)

// codeAlphabet omits 0/O and 1/I to keep manual entry unambiguous.
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// CodeLength of generated check-in codes.
const CodeLength = 8

// NewCode returns a random short alphanumeric check-in code.
func NewCode() (string, error) {
	b := make([]byte, CodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}
