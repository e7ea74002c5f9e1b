package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
)

// RegistryInfo is a snapshot of an owner's registry with its storage usage
type RegistryInfo struct {
	Address   domain.PublicKey
	Registry  *domain.Registry
	Capacity  int
	Space     int // Reserved account bytes
	UsedBytes int // Encoded size of the current contents
}

// GetRegistry loads the owner's registry. Returns domain.ErrRegistryNotFound
// before the first registration.
func (s *RegistryService) GetRegistry(ctx context.Context, owner domain.PublicKey) (*RegistryInfo, error) {
	addr, _, err := s.RegistryAddress(owner)
	if err != nil {
		return nil, err
	}

	reg, err := s.repo.Load(ctx, addr)
	if err != nil {
		return nil, err
	}

	return &RegistryInfo{
		Address:   addr,
		Registry:  reg,
		Capacity:  s.capacity,
		Space:     domain.AccountSpace(s.capacity),
		UsedBytes: reg.EncodedSize(),
	}, nil
}

// ListRequest represents a request to list an owner's assets
type ListRequest struct {
	Owner    domain.PublicKey
	Query    string // Case-insensitive match on name, description or CID (optional)
	FileType string // Prefix match on MIME type, e.g. "image/" (optional)
	SortBy   string // "", "date", "name", "size" (default: registration order)
	Reverse  bool
}

// ListResponse represents the response from listing assets
type ListResponse struct {
	Assets []domain.AssetRecord
	Total  int
}

// ListAssets scans the owner's registry with optional filtering and sorting.
// An uninitialized registry lists as empty.
func (s *RegistryService) ListAssets(ctx context.Context, req ListRequest) (*ListResponse, error) {
	info, err := s.GetRegistry(ctx, req.Owner)
	if err != nil {
		if errors.Is(err, domain.ErrRegistryNotFound) {
			return &ListResponse{Assets: []domain.AssetRecord{}, Total: 0}, nil
		}
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	assets := info.Registry.Assets
	if req.Query != "" {
		assets = filterByQuery(assets, req.Query)
	}
	if req.FileType != "" {
		assets = filterByType(assets, req.FileType)
	}
	assets = sortAssets(assets, req.SortBy, req.Reverse)

	return &ListResponse{
		Assets: assets,
		Total:  len(assets),
	}, nil
}

func filterByQuery(assets []domain.AssetRecord, query string) []domain.AssetRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	filtered := []domain.AssetRecord{}
	for _, a := range assets {
		if strings.Contains(strings.ToLower(a.Name), query) ||
			strings.Contains(strings.ToLower(a.Description), query) ||
			strings.Contains(strings.ToLower(a.ContentID), query) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func filterByType(assets []domain.AssetRecord, fileType string) []domain.AssetRecord {
	fileType = strings.ToLower(fileType)
	filtered := []domain.AssetRecord{}
	for _, a := range assets {
		if strings.HasPrefix(strings.ToLower(a.FileType), fileType) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

func sortAssets(assets []domain.AssetRecord, sortBy string, reverse bool) []domain.AssetRecord {
	sorted := make([]domain.AssetRecord, len(assets))
	copy(sorted, assets)

	if sortBy == "" {
		if reverse {
			for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
		return sorted
	}

	less := func(a, b domain.AssetRecord) bool {
		switch sortBy {
		case "name":
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case "size":
			return a.FileSize < b.FileSize
		default: // "date"
			return a.Timestamp < b.Timestamp
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if reverse {
			return less(sorted[j], sorted[i])
		}
		return less(sorted[i], sorted[j])
	})
	return sorted
}
