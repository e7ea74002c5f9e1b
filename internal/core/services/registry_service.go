package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
	"github.com/kamal-hamza/vx-cli/internal/core/ports"
	"github.com/kamal-hamza/vx-cli/internal/log"
	"github.com/kamal-hamza/vx-cli/internal/tracing"
	"github.com/kamal-hamza/vx-cli/pkg/pda"
)

// RegistryService owns the per-owner asset registries: admission checks,
// signer authorization, address derivation, and the register/delete mutations.
type RegistryService struct {
	repo      ports.RegistryRepository
	authz     ports.Authorizer
	programID domain.PublicKey
	capacity  int
	now       func() time.Time
	tracer    trace.Tracer
}

// RegistryOptions configures a RegistryService. Zero values get defaults.
type RegistryOptions struct {
	ProgramID domain.PublicKey
	Capacity  int
	Now       func() time.Time
	Tracer    trace.Tracer
}

// NewRegistryService creates a new registry service
func NewRegistryService(repo ports.RegistryRepository, authz ports.Authorizer, opts RegistryOptions) *RegistryService {
	if opts.Capacity <= 0 {
		opts.Capacity = domain.DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("noop")
	}

	return &RegistryService{
		repo:      repo,
		authz:     authz,
		programID: opts.ProgramID,
		capacity:  opts.Capacity,
		now:       opts.Now,
		tracer:    opts.Tracer,
	}
}

// Capacity returns the configured record bound
func (s *RegistryService) Capacity() int {
	return s.capacity
}

// ProgramID returns the program ID mixed into every address
func (s *RegistryService) ProgramID() domain.PublicKey {
	return s.programID
}

// RegistryAddress derives owner's registry address and canonical bump
func (s *RegistryService) RegistryAddress(owner domain.PublicKey) (domain.PublicKey, uint8, error) {
	addr, bump, err := pda.FindProgramAddress(domain.RegistrySeeds(owner), s.programID)
	if err != nil {
		return domain.PublicKey{}, 0, fmt.Errorf("failed to derive registry address: %w", err)
	}
	return addr, bump, nil
}

// RegisterRequest represents a request to register an asset
type RegisterRequest struct {
	Owner       domain.PublicKey
	ContentID   string
	Name        string
	Description string
	FileType    string
	FileSize    uint64

	Nonce     string // Unique per request, covered by the signature
	Signature []byte // Owner's signature over SigningPayload()
}

// SigningPayload returns the bytes the owner signs
func (r RegisterRequest) SigningPayload() []byte {
	return signingPayload("register_asset", r.Owner, r.Nonce,
		r.ContentID, r.Name, r.Description, r.FileType, strconv.FormatUint(r.FileSize, 10))
}

// RegisterResponse represents the result of a registration
type RegisterResponse struct {
	Record     domain.AssetRecord
	Address    domain.PublicKey
	Created    bool // The registry was initialized by this call
	AssetCount uint32
	Records    int
}

// RegisterAsset validates the request and appends a new record to the
// owner's registry, creating the registry on first use.
func (s *RegistryService) RegisterAsset(ctx context.Context, req RegisterRequest) (resp *RegisterResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "registry.register", trace.WithAttributes(
		attribute.String(tracing.AttrOwner, req.Owner.String()),
		attribute.String(tracing.AttrContentID, req.ContentID),
		attribute.String(tracing.AttrFileType, req.FileType),
	))
	defer func() { endSpan(span, err) }()

	if err := s.authz.Authorize(ctx, req.Owner, req.SigningPayload(), req.Signature); err != nil {
		log.Warn(log.CatRegistry, "register rejected", "owner", req.Owner, "reason", err)
		return nil, err
	}

	if err := domain.ValidateAsset(req.ContentID, req.Name, req.Description, req.FileType); err != nil {
		log.Debug(log.CatRegistry, "register failed validation", "owner", req.Owner, "reason", err)
		return nil, err
	}

	addr, bump, err := s.RegistryAddress(req.Owner)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(tracing.AttrAddress, addr.String()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp = &RegisterResponse{Address: addr}
	err = s.repo.Update(ctx, addr, domain.NewRegistry(req.Owner, bump), func(reg *domain.Registry, created bool) error {
		if reg.Owner != req.Owner {
			return domain.ErrUnauthorized
		}

		record := domain.AssetRecord{
			ContentID:   req.ContentID,
			Name:        req.Name,
			Description: req.Description,
			FileType:    req.FileType,
			FileSize:    req.FileSize,
			Owner:       req.Owner,
			Timestamp:   s.now().Unix(),
			Bump:        reg.Bump,
		}
		if err := reg.Append(record, s.capacity); err != nil {
			return err
		}

		resp.Record = record
		resp.Created = created
		resp.AssetCount = reg.AssetCount
		resp.Records = len(reg.Assets)
		return nil
	})
	if err != nil {
		log.ErrorErr(log.CatRegistry, "register failed", err, "owner", req.Owner, "address", addr)
		return nil, err
	}
	span.SetAttributes(attribute.Bool(tracing.AttrCreated, resp.Created))

	if resp.Created {
		log.Info(log.CatRegistry, "registry initialized", "owner", req.Owner, "address", addr, "bump", bump)
	}
	log.Info(log.CatRegistry, "asset registered",
		"owner", req.Owner, "cid", req.ContentID, "asset_count", resp.AssetCount, "records", resp.Records)

	return resp, nil
}

// DeleteRequest represents a request to delete every record with a content ID
type DeleteRequest struct {
	Owner     domain.PublicKey
	ContentID string

	// Registry is the account the caller claims belongs to Owner. When nil
	// the canonical address is used.
	Registry *domain.PublicKey

	Nonce     string
	Signature []byte
}

// SigningPayload returns the bytes the owner signs
func (r DeleteRequest) SigningPayload() []byte {
	return signingPayload("delete_asset", r.Owner, r.Nonce, r.ContentID)
}

// DeleteResponse represents the result of a deletion
type DeleteResponse struct {
	Address    domain.PublicKey
	Removed    int
	Remaining  int
	AssetCount uint32
}

// DeleteAsset removes all of the owner's records matching the content ID.
// It never creates a registry.
func (s *RegistryService) DeleteAsset(ctx context.Context, req DeleteRequest) (resp *DeleteResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "registry.delete", trace.WithAttributes(
		attribute.String(tracing.AttrOwner, req.Owner.String()),
		attribute.String(tracing.AttrContentID, req.ContentID),
	))
	defer func() { endSpan(span, err) }()

	if err := s.authz.Authorize(ctx, req.Owner, req.SigningPayload(), req.Signature); err != nil {
		log.Warn(log.CatRegistry, "delete rejected", "owner", req.Owner, "reason", err)
		return nil, err
	}

	addr, _, err := s.RegistryAddress(req.Owner)
	if err != nil {
		return nil, err
	}
	if req.Registry != nil {
		addr = *req.Registry
	}
	span.SetAttributes(attribute.String(tracing.AttrAddress, addr.String()))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp = &DeleteResponse{Address: addr}
	err = s.repo.Update(ctx, addr, nil, func(reg *domain.Registry, _ bool) error {
		if !pda.VerifyProgramAddress(addr, domain.RegistrySeeds(req.Owner), reg.Bump, s.programID) {
			return domain.ErrAddressMismatch
		}
		if reg.Owner != req.Owner {
			return domain.ErrUnauthorized
		}

		removed, err := reg.RemoveByContentID(req.ContentID)
		if err != nil {
			return err
		}

		resp.Removed = removed
		resp.Remaining = len(reg.Assets)
		resp.AssetCount = reg.AssetCount
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrAssetNotFound) {
			log.Debug(log.CatRegistry, "delete found nothing", "owner", req.Owner, "cid", req.ContentID)
		} else {
			log.ErrorErr(log.CatRegistry, "delete failed", err, "owner", req.Owner, "address", addr)
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrRemoved, resp.Removed))

	log.Info(log.CatRegistry, "asset deleted",
		"owner", req.Owner, "cid", req.ContentID, "removed", resp.Removed, "remaining", resp.Remaining)

	return resp, nil
}

// signingPayload builds a length-prefixed message so that no two distinct
// requests share an encoding
func signingPayload(op string, owner domain.PublicKey, nonce string, fields ...string) []byte {
	buf := make([]byte, 0, 128)
	for _, f := range append([]string{"vx", op, nonce}, fields...) {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(f)))
		buf = append(buf, f...)
	}
	return append(buf, owner[:]...)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
