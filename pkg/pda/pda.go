// Package pda derives program addresses: deterministic 32-byte addresses
// computed from a list of seeds and a program ID that are guaranteed not to
// be valid ed25519 public keys, so no private key can sign for them.
package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds is the maximum number of seeds, bump included
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed
	MaxSeedLength = 32
	// AddressSize is the size of a derived address and of a program ID
	AddressSize = 32
)

const marker = "ProgramDerivedAddress"

var (
	ErrMaxSeedLengthExceeded = errors.New("length of a seed exceeds the maximum")
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrOnCurve               = errors.New("derived address lies on the ed25519 curve")
	ErrNoViableBump          = errors.New("unable to find a viable bump seed")
)

// CreateProgramAddress hashes seeds and programID into an address.
// It fails with ErrOnCurve when the digest is a valid curve point.
func CreateProgramAddress(seeds [][]byte, programID [AddressSize]byte) ([AddressSize]byte, error) {
	var addr [AddressSize]byte

	if len(seeds) > MaxSeeds {
		return addr, ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return addr, fmt.Errorf("%w: %d bytes", ErrMaxSeedLengthExceeded, len(seed))
		}
	}

	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(marker))
	copy(addr[:], h.Sum(nil))

	if IsOnCurve(addr[:]) {
		return [AddressSize]byte{}, ErrOnCurve
	}
	return addr, nil
}

// FindProgramAddress searches bumps from 255 down to 1 and returns the first
// off-curve address together with the bump that produced it.
func FindProgramAddress(seeds [][]byte, programID [AddressSize]byte) ([AddressSize]byte, uint8, error) {
	if len(seeds)+1 > MaxSeeds {
		return [AddressSize]byte{}, 0, ErrTooManySeeds
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump > 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return [AddressSize]byte{}, 0, err
		}
	}
	return [AddressSize]byte{}, 0, ErrNoViableBump
}

// VerifyProgramAddress re-derives the address for (seeds, bump) and compares
// it with addr
func VerifyProgramAddress(addr [AddressSize]byte, seeds [][]byte, bump uint8, programID [AddressSize]byte) bool {
	withBump := append(append([][]byte{}, seeds...), []byte{bump})
	derived, err := CreateProgramAddress(withBump, programID)
	if err != nil {
		return false
	}
	return derived == addr
}

// IsOnCurve reports whether b decodes to a point on the ed25519 curve
func IsOnCurve(b []byte) bool {
	if len(b) != AddressSize {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
