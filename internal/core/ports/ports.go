package ports

import (
	"context"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
)

// RegistryRepository defines the port for registry account storage.
// Registries are keyed by their derived address.
type RegistryRepository interface {
	// Load returns the registry stored at addr, or domain.ErrRegistryNotFound
	Load(ctx context.Context, addr domain.PublicKey) (*domain.Registry, error)

	// Update applies fn to the registry at addr and persists the result.
	// If no registry exists and create is non-nil, fn runs against create
	// with created set (get-or-create); if create is nil the call fails with
	// domain.ErrRegistryNotFound. Nothing is written when fn returns an error.
	// Updates to the same address are serialized.
	Update(ctx context.Context, addr domain.PublicKey, create *domain.Registry, fn UpdateFunc) error

	// List returns the addresses of all stored registries
	List(ctx context.Context) ([]domain.PublicKey, error)
}

// UpdateFunc mutates a working copy of a registry
type UpdateFunc func(reg *domain.Registry, created bool) error

// Authorizer defines the port for signer verification
type Authorizer interface {
	// Authorize checks that signature over payload was produced by signer
	Authorize(ctx context.Context, signer domain.PublicKey, payload, signature []byte) error
}
