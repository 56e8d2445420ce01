// Package token seals linked-account credentials into an opaque
// bearer token. The voice platform stores the token and replays it
// on every request; nothing server-side persists it.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

var keySalt = []byte("bcskill.token.v1")

// Credentials is the payload carried inside a sealed token.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"tz"`
}

// Complete reports whether all fields required to log in are present.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.Password != "" && c.Timezone != ""
}

type payload struct {
	// ID randomizes the plaintext so equal credentials never seal to
	// related ciphertexts.
	ID   string      `json:"jti"`
	Data Credentials `json:"data"`
}

// Codec seals and opens credential tokens with a key derived from a
// deployment secret. The secret is injected here once; no other
// component reads it.
type Codec struct {
	aead cipher.AEAD
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	key, err := scrypt.Key([]byte(secret), keySalt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Seal encrypts the credentials into a URL-safe opaque string.
func (c *Codec) Seal(creds Credentials) (string, error) {
	plain, err := json.Marshal(payload{ID: uuid.NewString(), Data: creds})
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token produced by Seal. It reports ok=false for
// anything malformed, truncated, or sealed under a different secret.
// Callers treat that as "not linked", so no error detail is exposed.
func (c *Codec) Open(tok string) (Credentials, bool) {
	if tok == "" {
		return Credentials{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) <= c.aead.NonceSize() {
		return Credentials{}, false
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Credentials{}, false
	}

	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return Credentials{}, false
	}
	return p.Data, true
}
