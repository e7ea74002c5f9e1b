package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
	"github.com/kamal-hamza/vx-cli/internal/log"
)

const registrySchema = `
CREATE TABLE IF NOT EXISTS registries (
	address    TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	bump       INTEGER NOT NULL,
	space      INTEGER NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_registries_owner ON registries(owner);
`

// SQLiteRegistryRepository stores registry accounts as fixed-size encoded
// blobs. The account size is fixed when the row is created.
type SQLiteRegistryRepository struct {
	db       *sql.DB
	capacity int
}

var _ ports.RegistryRepository = (*SQLiteRegistryRepository)(nil)

// NewSQLiteRegistryRepository opens (creating if needed) the database at
// dbPath. New accounts reserve domain.AccountSpace(capacity) bytes.
func NewSQLiteRegistryRepository(dbPath string, capacity int) (*SQLiteRegistryRepository, error) {
	dsn := "file:" + dbPath + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	if dbPath == ":memory:" {
		dsn = "file::memory:?_txlock=immediate"
	}

	log.Debug(log.CatStore, "opening database", "path", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		log.ErrorErr(log.CatStore, "failed to open database", err, "path", dbPath)
		return nil, err
	}
	// One connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info(log.CatStore, "connected to database", "path", dbPath)
	return &SQLiteRegistryRepository{db: db, capacity: capacity}, nil
}

// Close closes the database connection
func (r *SQLiteRegistryRepository) Close() error {
	return r.db.Close()
}

// Load reads and decodes the account at addr
func (r *SQLiteRegistryRepository) Load(ctx context.Context, addr domain.PublicKey) (*domain.Registry, error) {
	reg, _, err := loadAccount(ctx, r.db, addr)
	return reg, err
}

// Update applies fn inside an immediate transaction. The account keeps the
// space it was created with.
func (r *SQLiteRegistryRepository) Update(ctx context.Context, addr domain.PublicKey, create *domain.Registry, fn ports.UpdateFunc) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	reg, space, err := loadAccount(ctx, tx, addr)
	created := false
	if errors.Is(err, domain.ErrRegistryNotFound) && create != nil {
		reg, space, err = create.Clone(), domain.AccountSpace(r.capacity), nil
		created = true
	}
	if err != nil {
		return err
	}

	if err := fn(reg, created); err != nil {
		return err
	}

	data, err := domain.EncodeRegistryAccount(reg, space)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO registries (address, owner, bump, space, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		addr.String(), reg.Owner.String(), int(reg.Bump), space, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registry: %w", err)
	}

	log.Debug(log.CatStore, "registry committed", "address", addr, "records", len(reg.Assets), "created", created)
	return nil
}

// List returns all stored addresses
func (r *SQLiteRegistryRepository) List(ctx context.Context) ([]domain.PublicKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT address FROM registries ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to list registries: %w", err)
	}
	defer rows.Close()

	addrs := []domain.PublicKey{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		addr, err := domain.ParsePublicKey(s)
		if err != nil {
			log.Warn(log.CatStore, "skipping malformed address", "address", s)
			continue
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadAccount(ctx context.Context, q queryer, addr domain.PublicKey) (*domain.Registry, int, error) {
	var (
		space int
		data  []byte
	)
	err := q.QueryRowContext(ctx, `SELECT space, data FROM registries WHERE address = ?`, addr.String()).
		Scan(&space, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, domain.ErrRegistryNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read registry: %w", err)
	}

	reg, err := domain.DecodeRegistry(data)
	if err != nil {
		return nil, 0, err
	}
	return reg, space, nil
}
