// Package encryption provides AES-GCM encryption of opaque strings. It is
// used to protect OAuth token material at rest, including legacy rows that
// store the whole token bundle as one encrypted JSON string.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const keySize = 32

var ErrKeySize = fmt.Errorf("encryption key must be exactly %d bytes", keySize)

// Codec encrypts and decrypts strings with a fixed 32-byte key.
type Codec struct {
	key []byte
}

// NewCodec creates a Codec from a raw 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != keySize {
		return nil, ErrKeySize
	}

	k := make([]byte, keySize)
	copy(k, key)

	return &Codec{key: k}, nil
}

// Encrypt encrypts plaintext and returns a base64 string containing the
// nonce followed by the ciphertext.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a base64 nonce+ciphertext string produced by Encrypt.
func (c *Codec) Decrypt(cryptoText string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(cryptoText)
	if err != nil {
		return "", err
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

func (c *Codec) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
