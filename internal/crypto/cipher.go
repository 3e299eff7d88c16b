// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// credentialSalt domain-separates the derived key from any other use of the
// same configured secret.
var credentialSalt = []byte("go-drive-pool/credentials/v1")

// credentialCipher is the AES-256-GCM implementation of [CredentialCipher].
type credentialCipher struct {
	aead cipher.AEAD
}

// Argon2id parameters used to stretch the configured secret into a 256-bit
// key. Derivation happens once at startup.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024 // 64 MiB
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
)

// NewCredentialCipher derives an AES-256 key from secret with Argon2id and
// returns a [CredentialCipher] backed by AES-GCM.
func NewCredentialCipher(secret string) (CredentialCipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := argon2.IDKey([]byte(secret), credentialSalt, argonTime, argonMemory, argonThreads, argonKeyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("error creating block cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("error creating GCM: %w", err)
	}

	return &credentialCipher{aead: aead}, nil
}

func (c *credentialCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("error generating nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *credentialCipher) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCiphertextShort
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}
