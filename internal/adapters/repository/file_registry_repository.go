package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
	"github.com/kamal-hamza/vx-cli/internal/log"
	"github.com/kamal-hamza/vx-cli/pkg/vault"
)

// lockFileName is the advisory lock shared by every process using the vault
const lockFileName = ".lock"

// lockRetryDelay is how often a blocked lock attempt is retried
const lockRetryDelay = 10 * time.Millisecond

// FileRegistryRepository stores each registry account as a JSON document
// under the vault's registries directory, named by its address.
// Writers hold an exclusive OS file lock on registries/.lock for the whole
// read-modify-write, readers a shared one, so separate vx processes on the
// same vault are serialized too.
type FileRegistryRepository struct {
	vault *vault.Vault
	mu    sync.RWMutex
}

// NewFileRegistryRepository creates a new file-based registry repository
func NewFileRegistryRepository(v *vault.Vault) *FileRegistryRepository {
	return &FileRegistryRepository{vault: v}
}

var _ ports.RegistryRepository = (*FileRegistryRepository)(nil)

// Load reads the registry account at addr
func (r *FileRegistryRepository) Load(ctx context.Context, addr domain.PublicKey) (*domain.Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	unlock, err := r.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.read(addr)
}

// Update applies fn to the registry at addr under the write lock and persists
// the result. Nothing is written when fn fails.
func (r *FileRegistryRepository) Update(ctx context.Context, addr domain.PublicKey, create *domain.Registry, fn ports.UpdateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lock(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	reg, err := r.read(addr)
	created := false
	if errors.Is(err, domain.ErrRegistryNotFound) && create != nil {
		reg, err = create.Clone(), nil
		created = true
	}
	if err != nil {
		return err
	}

	if err := fn(reg, created); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.write(addr, reg)
}

// List returns the addresses of all stored registries
func (r *FileRegistryRepository) List(ctx context.Context) ([]domain.PublicKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.vault.RegistriesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.PublicKey{}, nil
		}
		return nil, fmt.Errorf("failed to read registries directory: %w", err)
	}

	addrs := []domain.PublicKey{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		addr, err := domain.ParsePublicKey(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			log.Warn(log.CatStore, "skipping unrecognized registry file", "file", entry.Name())
			continue
		}
		addrs = append(addrs, addr)
	}

	sort.Slice(addrs, func(i, j int) bool { return addrs[i].String() < addrs[j].String() })
	return addrs, nil
}

// lock takes the vault-wide file lock, exclusive or shared, waiting until
// ctx is done
func (r *FileRegistryRepository) lock(ctx context.Context, exclusive bool) (func(), error) {
	if err := os.MkdirAll(r.vault.RegistriesPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create registries directory: %w", err)
	}

	fl := flock.New(filepath.Join(r.vault.RegistriesPath, lockFileName))

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock registries: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock registries: %w", ctx.Err())
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			log.ErrorErr(log.CatStore, "failed to unlock registries", err)
		}
	}, nil
}

func (r *FileRegistryRepository) read(addr domain.PublicKey) (*domain.Registry, error) {
	data, err := os.ReadFile(r.vault.GetRegistryPath(addr.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRegistryNotFound
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var reg domain.Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAccount, err)
	}
	if reg.Assets == nil {
		reg.Assets = []domain.AssetRecord{}
	}
	return &reg, nil
}

// write replaces the account file atomically via a temp file and rename
func (r *FileRegistryRepository) write(addr domain.PublicKey, reg *domain.Registry) error {
	if err := os.MkdirAll(r.vault.RegistriesPath, 0755); err != nil {
		return fmt.Errorf("failed to create registries directory: %w", err)
	}

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	tmp, err := os.CreateTemp(r.vault.RegistriesPath, ".registry-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write registry: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close registry: %w", err)
	}

	path := r.vault.GetRegistryPath(addr.String())
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace registry: %w", err)
	}

	log.Debug(log.CatStore, "registry written", "address", addr, "records", len(reg.Assets), "bytes", len(data))
	return nil
}
