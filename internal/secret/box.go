// Package secret seals datasource secure fields at rest.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrOpen is returned when a sealed value cannot be decrypted with the key.
var ErrOpen = errors.New("failed to open sealed value")

// Box encrypts and decrypts values with NaCl secretbox.
type Box struct {
	key [32]byte
}

// NewBox derives the box key from secretKey with SHA-256.
func NewBox(secretKey string) (*Box, error) {
	if secretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	return &Box{key: sha256.Sum256([]byte(secretKey))}, nil
}

// Seal encrypts plaintext and returns nonce and ciphertext as base64.
func (b *Box) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (b *Box) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrOpen
	}
	return string(plain), nil
}

// SealMap seals every non-empty value of fields.
func (b *Box) SealMap(fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		s, err := b.Seal(v)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// OpenMap opens every value of sealed.
func (b *Box) OpenMap(sealed map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(sealed))
	for k, v := range sealed {
		p, err := b.Open(v)
		if err != nil {
			return nil, fmt.Errorf("secure field %s: %w", k, err)
		}
		out[k] = p
	}
	return out, nil
}
