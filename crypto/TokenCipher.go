// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// TokenCipher encrypts OAuth tokens before they are written to the database
// and decrypts them on read. Ciphertexts are self-contained strings, safe for
// a text column.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

const tokenCipherKeySize = 32

// pbkdf2 parameters for stretching non-key material into an AES-256 key
const (
	tokenCipherKdfIterations = 210000
	tokenCipherKdfSalt       = "flowhub-token-cipher-v1"
)

type tokenCipherImpl struct {
	aead cipher.AEAD
}

// NewTokenCipher builds an AES-256-GCM cipher from the configured secret.
// The secret is either a base64-encoded 32-byte key, used as is, or an
// arbitrary passphrase stretched with PBKDF2.
func NewTokenCipher(secret string) (TokenCipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("token encryption key is not set")
	}
	key := deriveTokenCipherKey(secret)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init token cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init token cipher: %w", err)
	}
	return &tokenCipherImpl{aead: aead}, nil
}

func deriveTokenCipherKey(secret string) []byte {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err == nil && len(decoded) == tokenCipherKeySize {
		return decoded
	}
	return pbkdf2.Key([]byte(secret), []byte(tokenCipherKdfSalt), tokenCipherKdfIterations, tokenCipherKeySize, sha256.New)
}

func (t *tokenCipherImpl) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, t.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	// nonce is prepended so that a ciphertext decrypts without extra state
	sealed := t.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (t *tokenCipherImpl) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("malformed token ciphertext: %w", err)
	}
	if len(raw) < t.aead.NonceSize() {
		return "", fmt.Errorf("malformed token ciphertext: too short")
	}
	nonce, sealed := raw[:t.aead.NonceSize()], raw[t.aead.NonceSize():]
	plaintext, err := t.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}
	return string(plaintext), nil
}
