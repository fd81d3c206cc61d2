package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Box seals and opens small secrets (GitHub API tokens) for at-rest
// storage. The key comes from configuration and never touches the
// database.
type Box struct {
	key [keySize]byte
}

// NewBox builds a Box from a hex-encoded 32-byte key.
func NewBox(hexKey string) (*Box, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("invalid secret key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", keySize, len(raw))
	}
	box := &Box{}
	copy(box.key[:], raw)
	return box, nil
}

// GenerateKey returns a fresh hex-encoded key suitable for NewBox.
func GenerateKey() (string, error) {
	raw := make([]byte, keySize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// Seal encrypts a plaintext secret. The nonce is prepended to the output.
func (b *Box) Seal(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key), nil
}

// Open decrypts a sealed secret produced by Seal.
func (b *Box) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("sealed secret too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", fmt.Errorf("secret decryption failed")
	}
	return string(plaintext), nil
}
