package repository

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
	"github.com/kamal-hamza/vx-cli/internal/log"
)

const DefaultCleanupInterval = 30 * time.Minute

// CachedRegistryRepository is a read-through cache in front of another
// RegistryRepository. Writes go to the backing store first and refresh the
// cached copy only after they succeed.
type CachedRegistryRepository struct {
	next  ports.RegistryRepository
	cache *gocache.Cache
}

var _ ports.RegistryRepository = (*CachedRegistryRepository)(nil)

// NewCachedRegistryRepository wraps next with a cache whose entries expire
// after ttl
func NewCachedRegistryRepository(next ports.RegistryRepository, ttl time.Duration) *CachedRegistryRepository {
	return &CachedRegistryRepository{
		next:  next,
		cache: gocache.New(ttl, DefaultCleanupInterval),
	}
}

// Load returns a copy of the cached registry, reading through on a miss
func (r *CachedRegistryRepository) Load(ctx context.Context, addr domain.PublicKey) (*domain.Registry, error) {
	key := addr.String()
	if v, found := r.cache.Get(key); found {
		if reg, ok := v.(*domain.Registry); ok {
			log.Debug(log.CatCache, "cache hit", "key", key)
			return reg.Clone(), nil
		}
		log.Error(log.CatCache, "wrong type assertion when getting value", "key", key)
	}

	reg, err := r.next.Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, reg.Clone())
	return reg, nil
}

// Update delegates to the backing store and caches the committed result
func (r *CachedRegistryRepository) Update(ctx context.Context, addr domain.PublicKey, create *domain.Registry, fn ports.UpdateFunc) error {
	var committed *domain.Registry
	err := r.next.Update(ctx, addr, create, func(reg *domain.Registry, created bool) error {
		if err := fn(reg, created); err != nil {
			return err
		}
		committed = reg.Clone()
		return nil
	})

	key := addr.String()
	if err != nil {
		// The store may have changed underneath us
		r.cache.Delete(key)
		return err
	}

	r.cache.SetDefault(key, committed)
	return nil
}

// List is never cached
func (r *CachedRegistryRepository) List(ctx context.Context) ([]domain.PublicKey, error) {
	return r.next.List(ctx)
}

// Invalidate drops the cached copy of addr
func (r *CachedRegistryRepository) Invalidate(addr domain.PublicKey) {
	r.cache.Delete(addr.String())
}

// Flush drops every cached registry
func (r *CachedRegistryRepository) Flush() {
	log.Debug(log.CatCache, "cache flushed", "items", r.cache.ItemCount())
	r.cache.Flush()
}
