package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
)

// MockRegistryRepository is an in-memory implementation of the
// RegistryRepository interface for testing
type MockRegistryRepository struct {
	mu         sync.Mutex
	registries map[domain.PublicKey]*domain.Registry

	// Writes counts successful Update calls
	Writes int
}

// NewMockRegistryRepository creates a new mock registry repository
func NewMockRegistryRepository() *MockRegistryRepository {
	return &MockRegistryRepository{
		registries: make(map[domain.PublicKey]*domain.Registry),
	}
}

// Load returns a copy of the registry at addr
func (m *MockRegistryRepository) Load(ctx context.Context, addr domain.PublicKey) (*domain.Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.registries[addr]
	if !ok {
		return nil, domain.ErrRegistryNotFound
	}
	return reg.Clone(), nil
}

// Update applies fn to a copy and stores it on success
func (m *MockRegistryRepository) Update(ctx context.Context, addr domain.PublicKey, create *domain.Registry, fn ports.UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.registries[addr]
	if !ok {
		if create == nil {
			return domain.ErrRegistryNotFound
		}
		current = create
	}

	working := current.Clone()
	if err := fn(working, !ok); err != nil {
		return err
	}

	m.registries[addr] = working
	m.Writes++
	return nil
}

// List returns all stored addresses, sorted
func (m *MockRegistryRepository) List(ctx context.Context) ([]domain.PublicKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	addrs := make([]domain.PublicKey, 0, len(m.registries))
	for addr := range m.registries {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].String() < addrs[j].String() })
	return addrs, nil
}

// Put seeds the mock with a registry
func (m *MockRegistryRepository) Put(addr domain.PublicKey, reg *domain.Registry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registries[addr] = reg.Clone()
}

// --- MockAuthorizer ---

// MockAuthorizer accepts every request unless Err is set
type MockAuthorizer struct {
	mu    sync.Mutex
	Err   error
	Calls []domain.PublicKey
}

// NewMockAuthorizer creates an authorizer that allows everything
func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{}
}

// Authorize records the signer and returns Err
func (m *MockAuthorizer) Authorize(ctx context.Context, signer domain.PublicKey, payload, signature []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, signer)
	return m.Err
}
