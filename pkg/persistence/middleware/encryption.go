package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
)

// encryptedPrefix marks a field value as ciphertext.
const encryptedPrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.LeadStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts the personal
// fields of a lead with AES-GCM: the display name, every answer value and
// the text of every history entry. Ids, step ids and timestamps stay in the
// clear so backends can still list and filter leads.
//
// Values without the ciphertext marker are returned as stored, so encryption
// can be enabled on a store that already holds plain leads.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes, got %d", i, len(k))
		}
	}
	return func(next ports.LeadStore) ports.LeadStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

// ParseKey decodes a 32 byte key given as 64 hex characters or as standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) == 64 {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.New("key is neither hex nor base64")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, lead *domain.Lead) error {
	sealed := lead.Clone()
	var err error
	seal := func(s string) string {
		if err != nil || s == "" {
			return s
		}
		var out string
		out, err = m.seal(s)
		return out
	}

	sealed.DisplayName = seal(sealed.DisplayName)
	for k, v := range sealed.Answers {
		sealed.Answers[k] = seal(v)
	}
	for i := range sealed.History {
		sealed.History[i].Text = seal(sealed.History[i].Text)
	}
	if err != nil {
		return fmt.Errorf("failed to encrypt lead %s: %w", lead.ChannelID, err)
	}
	return m.next.Save(ctx, sealed)
}

func (m *encryptionMiddleware) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	lead, err := m.next.Load(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := m.openLead(lead); err != nil {
		return nil, fmt.Errorf("failed to decrypt lead %s: %w", channelID, err)
	}
	return lead, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, channelID string) error {
	return m.next.Delete(ctx, channelID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]*domain.Lead, error) {
	all, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, lead := range all {
		if err := m.openLead(lead); err != nil {
			return nil, fmt.Errorf("failed to decrypt lead %s: %w", lead.ChannelID, err)
		}
	}
	return all, nil
}

func (m *encryptionMiddleware) openLead(lead *domain.Lead) error {
	var err error
	open := func(s string) string {
		if err != nil || !strings.HasPrefix(s, encryptedPrefix) {
			return s
		}
		var out string
		out, err = m.open(s)
		return out
	}

	lead.DisplayName = open(lead.DisplayName)
	for k, v := range lead.Answers {
		lead.Answers[k] = open(v)
	}
	for i := range lead.History {
		lead.History[i].Text = open(lead.History[i].Text)
	}
	return err
}

func (m *encryptionMiddleware) seal(plain string) (string, error) {
	ciphertext, err := encrypt([]byte(plain), m.config.ActiveKey)
	if err != nil {
		return "", err
	}
	return encryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (m *encryptionMiddleware) open(value string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, encryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
