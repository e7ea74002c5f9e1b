package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
	"github.com/kamal-hamza/vx-cli/internal/log"
)

// ReplayWindow is how long an accepted signature is remembered
const ReplayWindow = 10 * time.Minute

// SignatureAuthorizer accepts a request only when it carries a valid ed25519
// signature from the claimed signer over the request payload.
//
// Replay rejection covers requests seen by this instance only: a signature
// accepted once is rejected for ReplayWindow afterwards, but the set of seen
// signatures lives in process memory. Each vx command runs in a fresh
// process, so on the CLI a replay is only caught within one invocation.
type SignatureAuthorizer struct {
	seen *gocache.Cache
}

var _ ports.Authorizer = (*SignatureAuthorizer)(nil)

// NewSignatureAuthorizer creates a new signature authorizer
func NewSignatureAuthorizer() *SignatureAuthorizer {
	return &SignatureAuthorizer{
		seen: gocache.New(ReplayWindow, ReplayWindow),
	}
}

// Authorize verifies signature against signer and payload
func (a *SignatureAuthorizer) Authorize(ctx context.Context, signer domain.PublicKey, payload, signature []byte) error {
	if len(signature) != ed25519.SignatureSize {
		log.Debug(log.CatAuth, "malformed signature", "signer", signer, "len", len(signature))
		return domain.ErrInvalidSignature
	}
	if !ed25519.Verify(signer[:], payload, signature) {
		log.Debug(log.CatAuth, "signature verification failed", "signer", signer)
		return domain.ErrInvalidSignature
	}

	// Add fails if the key is already present
	if err := a.seen.Add(hex.EncodeToString(signature), struct{}{}, gocache.DefaultExpiration); err != nil {
		log.Warn(log.CatAuth, "replayed signature", "signer", signer)
		return fmt.Errorf("%w: replayed request", domain.ErrInvalidSignature)
	}

	return nil
}

// NewNonce returns a fresh request nonce
func NewNonce() string {
	return uuid.NewString()
}
