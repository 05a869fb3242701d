// Package tokencipher seals third-party credentials for storage in a text column.
//
// The key is SHA-256 of the server secret, the cipher is AES-256-GCM with a fresh
// 12-byte nonce per call, and the 16-byte tag is kept apart from the ciphertext.
// All three outputs are standard base64 strings.
package tokencipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	nonceSize = 12
	tagSize   = 16
)

var (
	// ErrIntegrity means the tag did not authenticate the ciphertext and nonce.
	ErrIntegrity = errors.New("token integrity check failed")
	// ErrFormat means a stored field is missing or not decodable.
	ErrFormat = errors.New("token payload malformed")
	// ErrNoSecret means no server secret was supplied.
	ErrNoSecret = errors.New("encryption secret is empty")
)

// Payload mirrors the token_cipher, token_iv and token_tag columns.
type Payload struct {
	CipherText string `json:"ciphertext"`
	Nonce      string `json:"iv"`
	AuthTag    string `json:"tag"`
}

func deriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

func newAEAD(secret string) (cipher.AEAD, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

func Encrypt(secret, plaintext string) (Payload, error) {
	if plaintext == "" {
		return Payload{}, fmt.Errorf("%w: plaintext is empty", ErrFormat)
	}
	aead, err := newAEAD(secret)
	if err != nil {
		return Payload{}, err
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Payload{}, fmt.Errorf("read nonce: %w", err)
	}
	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	body, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]
	return Payload{
		CipherText: base64.StdEncoding.EncodeToString(body),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		AuthTag:    base64.StdEncoding.EncodeToString(tag),
	}, nil
}

func Decrypt(secret string, p Payload) (string, error) {
	aead, err := newAEAD(secret)
	if err != nil {
		return "", err
	}
	body, err := decodeField("ciphertext", p.CipherText, -1)
	if err != nil {
		return "", err
	}
	nonce, err := decodeField("iv", p.Nonce, nonceSize)
	if err != nil {
		return "", err
	}
	tag, err := decodeField("tag", p.AuthTag, tagSize)
	if err != nil {
		return "", err
	}
	sealed := make([]byte, 0, len(body)+len(tag))
	sealed = append(sealed, body...)
	sealed = append(sealed, tag...)
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrIntegrity
	}
	return string(plain), nil
}

// decodeField decodes a base64 column; wantLen < 0 accepts any non-empty length.
func decodeField(name, value string, wantLen int) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: %s is missing", ErrFormat, name)
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not base64", ErrFormat, name)
	}
	if wantLen >= 0 && len(raw) != wantLen {
		return nil, fmt.Errorf("%w: %s has length %d, want %d", ErrFormat, name, len(raw), wantLen)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFormat, name)
	}
	return raw, nil
}
