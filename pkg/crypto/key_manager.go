package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

var ErrInvalidMasterKey = errors.New("invalid master key: must be base64 of 32 bytes")

const keyInfo = "aura/evidence/v1"

// KeyManager derives one data key per user from a master key with HKDF-SHA256,
// so no per-user key material has to be stored.
type KeyManager struct {
	masterKey []byte

	mu       sync.RWMutex
	dataKeys map[string][]byte
}

// NewKeyManager decodes a base64 master key
func NewKeyManager(masterKeyBase64 string) (*KeyManager, error) {
	masterKey, err := base64.StdEncoding.DecodeString(masterKeyBase64)
	if err != nil || len(masterKey) != 32 {
		return nil, ErrInvalidMasterKey
	}
	return newKeyManager(masterKey), nil
}

// NewEphemeralKeyManager uses a random master key. Data sealed with it is
// unreadable after a restart.
func NewEphemeralKeyManager() (*KeyManager, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	return newKeyManager(key), nil
}

func newKeyManager(masterKey []byte) *KeyManager {
	return &KeyManager{
		masterKey: masterKey,
		dataKeys:  make(map[string][]byte),
	}
}

// DataKey returns the 32-byte key for userID
func (km *KeyManager) DataKey(userID string) ([]byte, error) {
	km.mu.RLock()
	key, ok := km.dataKeys[userID]
	km.mu.RUnlock()
	if ok {
		return key, nil
	}

	key = make([]byte, 32)
	r := hkdf.New(sha256.New, km.masterKey, []byte(userID), []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive data key: %w", err)
	}

	km.mu.Lock()
	km.dataKeys[userID] = key
	km.mu.Unlock()
	return key, nil
}

// Seal encrypts plaintext for userID; the user id is bound as associated data
func (km *KeyManager) Seal(userID string, plaintext []byte) (string, error) {
	key, err := km.DataKey(userID)
	if err != nil {
		return "", err
	}
	return Encrypt(plaintext, key, []byte(userID))
}

// Open decrypts a value sealed for userID
func (km *KeyManager) Open(userID, ciphertext string) ([]byte, error) {
	key, err := km.DataKey(userID)
	if err != nil {
		return nil, err
	}
	return Decrypt(ciphertext, key, []byte(userID))
}
