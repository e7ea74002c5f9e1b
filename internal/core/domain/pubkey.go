package domain

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeySize is the length of an identity or address in bytes
const PublicKeySize = 32

// PublicKey is a 32-byte identity: an owner's ed25519 public key or a
// derived registry address. It renders as base58.
type PublicKey [PublicKeySize]byte

// ParsePublicKey decodes a base58 string
func ParsePublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	raw, err := base58.Decode(s)
	if err != nil {
		return pk, fmt.Errorf("invalid public key %q: %w", s, err)
	}
	if len(raw) != PublicKeySize {
		return pk, fmt.Errorf("invalid public key %q: expected %d bytes, got %d", s, PublicKeySize, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// PublicKeyFromBytes copies b into a PublicKey
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("expected %d bytes, got %d", PublicKeySize, len(b))
	}
	copy(pk[:], b)
	return pk, nil
}

func (p PublicKey) String() string {
	return base58.Encode(p[:])
}

// Short returns an abbreviated form for tables ("7xKX…gAsU")
func (p PublicKey) Short() string {
	s := p.String()
	if len(s) <= 10 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// Bytes returns a copy of the raw key
func (p PublicKey) Bytes() []byte {
	return bytes.Clone(p[:])
}

// IsZero reports whether every byte is zero
func (p PublicKey) IsZero() bool {
	return p == PublicKey{}
}

func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *PublicKey) UnmarshalText(text []byte) error {
	pk, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*p = pk
	return nil
}
