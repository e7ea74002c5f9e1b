package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
	"github.com/kamal-hamza/vx-cli/internal/core/ports/mocks"
	"github.com/kamal-hamza/vx-cli/pkg/vault"
)

var (
	testAddr  = domain.PublicKey{0xaa, 1}
	testOwner = domain.PublicKey{0xbb, 2}
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	root := t.TempDir()
	v := vault.NewAt(root, filepath.Join(root, "config.yaml"))
	require.NoError(t, v.Initialize())
	return v
}

func newSQLite(t *testing.T, capacity int) *SQLiteRegistryRepository {
	t.Helper()
	repo, err := NewSQLiteRegistryRepository(filepath.Join(t.TempDir(), "vx.db"), capacity)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// repositories returns every implementation under test
func repositories(t *testing.T) map[string]ports.RegistryRepository {
	return map[string]ports.RegistryRepository{
		"file":   NewFileRegistryRepository(newTestVault(t)),
		"sqlite": newSQLite(t, domain.DefaultCapacity),
		"cached": NewCachedRegistryRepository(NewFileRegistryRepository(newTestVault(t)), time.Minute),
	}
}

func appendRecord(cid string) ports.UpdateFunc {
	return func(reg *domain.Registry, _ bool) error {
		return reg.Append(domain.AssetRecord{
			ContentID: cid,
			Name:      "name-" + cid,
			FileType:  "image/png",
			FileSize:  42,
			Owner:     reg.Owner,
			Timestamp: 1_700_000_000,
			Bump:      reg.Bump,
		}, 0)
	}
}

func TestRegistryRepository_LoadMissing(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.Load(context.Background(), testAddr)
			assert.ErrorIs(t, err, domain.ErrRegistryNotFound)
		})
	}
}

func TestRegistryRepository_CreateAndUpdate(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			create := domain.NewRegistry(testOwner, 251)

			var sawCreated []bool
			track := func(fn ports.UpdateFunc) ports.UpdateFunc {
				return func(reg *domain.Registry, created bool) error {
					sawCreated = append(sawCreated, created)
					return fn(reg, created)
				}
			}

			require.NoError(t, repo.Update(ctx, testAddr, create, track(appendRecord("Qm123"))))
			require.NoError(t, repo.Update(ctx, testAddr, create, track(appendRecord("Qm456"))))
			assert.Equal(t, []bool{true, false}, sawCreated)

			reg, err := repo.Load(ctx, testAddr)
			require.NoError(t, err)
			assert.Equal(t, testOwner, reg.Owner)
			assert.Equal(t, uint8(251), reg.Bump)
			assert.Equal(t, uint32(2), reg.AssetCount)
			require.Len(t, reg.Assets, 2)
			assert.Equal(t, "Qm123", reg.Assets[0].ContentID)
			assert.Equal(t, "Qm456", reg.Assets[1].ContentID)

			// create is a template, never mutated
			assert.Empty(t, create.Assets)
		})
	}
}

func TestRegistryRepository_UpdateWithoutCreate(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			called := false
			err := repo.Update(context.Background(), testAddr, nil, func(*domain.Registry, bool) error {
				called = true
				return nil
			})
			assert.ErrorIs(t, err, domain.ErrRegistryNotFound)
			assert.False(t, called)
		})
	}
}

func TestRegistryRepository_FailedUpdateWritesNothing(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			boom := errors.New("boom")

			// Failure on creation leaves no account behind
			err := repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 251), func(reg *domain.Registry, created bool) error {
				require.NoError(t, appendRecord("a")(reg, created))
				return boom
			})
			require.ErrorIs(t, err, boom)
			_, err = repo.Load(ctx, testAddr)
			assert.ErrorIs(t, err, domain.ErrRegistryNotFound)

			// Failure on an existing account leaves it unchanged
			require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 251), appendRecord("a")))
			before, err := repo.Load(ctx, testAddr)
			require.NoError(t, err)

			err = repo.Update(ctx, testAddr, nil, func(reg *domain.Registry, _ bool) error {
				reg.Assets = nil
				reg.AssetCount = 99
				return boom
			})
			require.ErrorIs(t, err, boom)

			after, err := repo.Load(ctx, testAddr)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestRegistryRepository_LoadReturnsCopy(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 251), appendRecord("a")))

			reg, err := repo.Load(ctx, testAddr)
			require.NoError(t, err)
			reg.Assets[0].Name = "mutated"

			again, err := repo.Load(ctx, testAddr)
			require.NoError(t, err)
			assert.Equal(t, "name-a", again.Assets[0].Name)
		})
	}
}

func TestRegistryRepository_List(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			addrs, err := repo.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, addrs)

			other := domain.PublicKey{0xcc}
			require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("a")))
			require.NoError(t, repo.Update(ctx, other, domain.NewRegistry(testOwner, 1), appendRecord("b")))

			addrs, err = repo.List(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, []domain.PublicKey{testAddr, other}, addrs)
		})
	}
}

func TestRegistryRepository_ConcurrentUpdates(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const n = 20

			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("c"))
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			reg, err := repo.Load(ctx, testAddr)
			require.NoError(t, err)
			assert.Len(t, reg.Assets, n)
			assert.Equal(t, uint32(n), reg.AssetCount)
		})
	}
}

func TestFileRegistryRepository_Layout(t *testing.T) {
	v := newTestVault(t)
	repo := NewFileRegistryRepository(v)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 251), appendRecord("Qm123")))

	data, err := os.ReadFile(v.GetRegistryPath(testAddr.String()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"asset_count": 1`)
	assert.Contains(t, string(data), `"cid": "Qm123"`)
	assert.Contains(t, string(data), testOwner.String())

	// No temp files left behind
	entries, err := os.ReadDir(v.RegistriesPath)
	require.NoError(t, err)
	names := []string{}
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{testAddr.String() + ".json", lockFileName}, names)
}

// Separate repositories on one vault stand in for separate vx processes
func TestFileRegistryRepository_SharedVaultUpdates(t *testing.T) {
	v := newTestVault(t)
	repos := []*FileRegistryRepository{NewFileRegistryRepository(v), NewFileRegistryRepository(v)}
	ctx := context.Background()
	const perRepo = 50

	var wg sync.WaitGroup
	errs := make(chan error, perRepo*len(repos))
	for _, repo := range repos {
		for i := 0; i < perRepo; i++ {
			wg.Add(1)
			go func(repo *FileRegistryRepository) {
				defer wg.Done()
				errs <- repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("c"))
			}(repo)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	reg, err := repos[0].Load(ctx, testAddr)
	require.NoError(t, err)
	assert.Len(t, reg.Assets, perRepo*len(repos))
	assert.Equal(t, uint32(perRepo*len(repos)), reg.AssetCount)
}

func TestFileRegistryRepository_UpdateWaitsForLock(t *testing.T) {
	v := newTestVault(t)
	repo := NewFileRegistryRepository(v)

	held := flock.New(filepath.Join(v.RegistriesPath, lockFileName))
	require.NoError(t, held.Lock())
	defer held.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("a"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, held.Unlock())
	_, err = repo.Load(context.Background(), testAddr)
	assert.ErrorIs(t, err, domain.ErrRegistryNotFound)
}

func TestFileRegistryRepository_CorruptAccount(t *testing.T) {
	v := newTestVault(t)
	repo := NewFileRegistryRepository(v)

	require.NoError(t, os.WriteFile(v.GetRegistryPath(testAddr.String()), []byte("{not json"), 0644))

	_, err := repo.Load(context.Background(), testAddr)
	assert.ErrorIs(t, err, domain.ErrInvalidAccount)
}

func TestFileRegistryRepository_ListSkipsForeignFiles(t *testing.T) {
	v := newTestVault(t)
	repo := NewFileRegistryRepository(v)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("a")))
	require.NoError(t, os.WriteFile(filepath.Join(v.RegistriesPath, "notes.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(v.RegistriesPath, "bad!.json"), nil, 0644))

	addrs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.PublicKey{testAddr}, addrs)
}

func TestSQLiteRegistryRepository_FixedSpace(t *testing.T) {
	repo := newSQLite(t, 1)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("a")))

	var space, size int
	require.NoError(t, repo.db.QueryRow(`SELECT space, length(data) FROM registries`).Scan(&space, &size))
	assert.Equal(t, domain.AccountSpace(1), space)
	assert.Equal(t, space, size)

	// Bypass Append's bound to hit the store's own limit
	err := repo.Update(ctx, testAddr, nil, func(reg *domain.Registry, _ bool) error {
		reg.Assets = append(reg.Assets, domain.AssetRecord{Name: strings.Repeat("n", 400)})
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrStorageExhausted)

	reg, err := repo.Load(ctx, testAddr)
	require.NoError(t, err)
	assert.Len(t, reg.Assets, 1)
}

func TestSQLiteRegistryRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vx.db")
	ctx := context.Background()

	repo, err := NewSQLiteRegistryRepository(path, 10)
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("a")))
	require.NoError(t, repo.Close())

	// Capacity only applies to new accounts
	repo, err = NewSQLiteRegistryRepository(path, 300)
	require.NoError(t, err)
	defer repo.Close()

	reg, err := repo.Load(ctx, testAddr)
	require.NoError(t, err)
	assert.Len(t, reg.Assets, 1)

	var space int
	require.NoError(t, repo.db.QueryRow(`SELECT space FROM registries`).Scan(&space))
	assert.Equal(t, domain.AccountSpace(10), space)
}

func TestCachedRegistryRepository_ServesFromCache(t *testing.T) {
	backing := mocks.NewMockRegistryRepository()
	repo := NewCachedRegistryRepository(backing, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("a")))

	// Changes behind the cache's back are not seen until invalidated
	stale := domain.NewRegistry(testOwner, 1)
	backing.Put(testAddr, stale)

	reg, err := repo.Load(ctx, testAddr)
	require.NoError(t, err)
	assert.Len(t, reg.Assets, 1)

	repo.Invalidate(testAddr)
	reg, err = repo.Load(ctx, testAddr)
	require.NoError(t, err)
	assert.Empty(t, reg.Assets)
}

func TestCachedRegistryRepository_FailedUpdateEvicts(t *testing.T) {
	backing := mocks.NewMockRegistryRepository()
	repo := NewCachedRegistryRepository(backing, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Update(ctx, testAddr, domain.NewRegistry(testOwner, 1), appendRecord("a")))
	_, err := repo.Load(ctx, testAddr)
	require.NoError(t, err)

	err = repo.Update(ctx, testAddr, nil, func(*domain.Registry, bool) error { return domain.ErrAssetNotFound })
	require.ErrorIs(t, err, domain.ErrAssetNotFound)

	backing.Put(testAddr, domain.NewRegistry(testOwner, 1))
	reg, err := repo.Load(ctx, testAddr)
	require.NoError(t, err)
	assert.Empty(t, reg.Assets, "evicted entry reads through")

	repo.Flush()
}

func TestWatch_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, WatchOptions{
			Dir:      dir,
			Match:    RegistryFileMatch,
			Debounce: 50 * time.Millisecond,
			OnChange: func(names []string) { changes <- names },
		})
	}()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{ }"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".registry-1.tmp"), nil, 0644))

	select {
	case names := <-changes:
		assert.Equal(t, []string{"a.json"}, names)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestSQLiteFileMatch(t *testing.T) {
	match := SQLiteFileMatch("/data/vx.db")
	assert.True(t, match("vx.db"))
	assert.True(t, match("vx.db-wal"))
	assert.False(t, match("vx.db-shm"))
	assert.False(t, match("other.db"))
}
