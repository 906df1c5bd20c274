package rotation

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/awnumar/memguard"
)

// passwordCharset is the mixed alphabet for generated passwords.
const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_=+"

// Generator produces new secret material. Generated plaintext is returned in
// memguard locked buffers so it can be wiped once the write is verified.
type Generator struct {
	PasswordLength int
	TokenBytes     int
}

// NewGenerator creates a generator with the given tunables.
func NewGenerator(passwordLength, tokenBytes int) *Generator {
	return &Generator{PasswordLength: passwordLength, TokenBytes: tokenBytes}
}

// Password generates a high-entropy password drawn from the mixed
// alphanumeric+symbol alphabet. The caller must Destroy the buffer.
func (g *Generator) Password() (*memguard.LockedBuffer, error) {
	length := g.PasswordLength
	random := make([]byte, length)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	out := make([]byte, length)
	for i := 0; i < length; i++ {
		out[i] = passwordCharset[int(random[i])%len(passwordCharset)]
	}
	// NewBufferFromBytes wipes the source slice after copying.
	return memguard.NewBufferFromBytes(out), nil
}

// Token generates a random token: TokenBytes of cryptographically secure
// randomness, hex-encoded. The caller must Destroy the buffer.
func (g *Generator) Token() (*memguard.LockedBuffer, error) {
	random := make([]byte, g.TokenBytes)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := make([]byte, hex.EncodedLen(len(random)))
	hex.Encode(encoded, random)
	for i := range random {
		random[i] = 0
	}
	return memguard.NewBufferFromBytes(encoded), nil
}
