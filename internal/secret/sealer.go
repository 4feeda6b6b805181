// Package secret seals upstream credentials before they are written to
// durable storage.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrMalformed = errors.New("sealed value is malformed")

type Sealer struct {
	key [32]byte
}

// NewSealer derives the box key from passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("empty seal passphrase")
	}
	s := &Sealer{}
	kdf := hkdf.New(sha256.New, []byte(passphrase), nil, []byte("statify/upstream-token"))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}
	return s, nil
}

// Seal encrypts plaintext. The empty string stays empty so that unset
// credentials remain recognisable.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrMalformed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrMalformed
	}
	return string(out), nil
}
