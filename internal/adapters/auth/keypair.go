package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
)

// ErrKeypairExists is returned when saving over an existing keypair file
var ErrKeypairExists = errors.New("keypair file already exists")

// Keypair is an owner's ed25519 signing key. On disk it is a JSON array of
// the 64 private key bytes (seed followed by public key).
type Keypair struct {
	priv ed25519.PrivateKey
}

// GenerateKeypair creates a new random keypair
func GenerateKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Keypair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// LoadKeypair reads a keypair file
func LoadKeypair(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("keypair not found at %s (run 'vx init')", path)
		}
		return nil, fmt.Errorf("failed to read keypair: %w", err)
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("failed to parse keypair %s: %w", path, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(ints))
	}
	raw := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("keypair %s: byte %d out of range", path, i)
		}
		raw[i] = byte(v)
	}

	kp, err := KeypairFromSeed(raw[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if !kp.priv.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
		return nil, fmt.Errorf("keypair %s: public key does not match secret", path)
	}
	return kp, nil
}

// Save writes the keypair to path with owner-only permissions. It refuses to
// replace an existing file.
func (k *Keypair) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	ints := make([]int, len(k.priv))
	for i, b := range k.priv {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return fmt.Errorf("failed to marshal keypair: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrKeypairExists, path)
		}
		return fmt.Errorf("failed to create keypair file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write keypair: %w", err)
	}
	return f.Close()
}

// PublicKey returns the owner identity
func (k *Keypair) PublicKey() domain.PublicKey {
	var pk domain.PublicKey
	copy(pk[:], k.priv.Public().(ed25519.PublicKey))
	return pk
}

// Sign signs payload
func (k *Keypair) Sign(payload []byte) []byte {
	return ed25519.Sign(k.priv, payload)
}
