package services

import (
	"context"
	"sort"
	"time"

	"github.com/kamal-hamza/vx-cli/internal/core/domain"
)

// TypeStat aggregates the records of one MIME type
type TypeStat struct {
	FileType string
	Count    int
	Bytes    uint64
}

// StatsResponse summarizes an owner's registry
type StatsResponse struct {
	Address    domain.PublicKey
	Records    int
	AssetCount uint32 // Lifetime registrations
	Deleted    int    // AssetCount minus surviving records
	TotalBytes uint64
	ByType     []TypeStat
	Oldest     time.Time
	Newest     time.Time

	Capacity  int
	Space     int
	UsedBytes int
}

// Stats aggregates the owner's registry
func (s *RegistryService) Stats(ctx context.Context, owner domain.PublicKey) (*StatsResponse, error) {
	info, err := s.GetRegistry(ctx, owner)
	if err != nil {
		return nil, err
	}
	reg := info.Registry

	resp := &StatsResponse{
		Address:    info.Address,
		Records:    len(reg.Assets),
		AssetCount: reg.AssetCount,
		Deleted:    int(reg.AssetCount) - len(reg.Assets),
		TotalBytes: reg.TotalSize(),
		Capacity:   info.Capacity,
		Space:      info.Space,
		UsedBytes:  info.UsedBytes,
	}

	byType := make(map[string]*TypeStat)
	for _, a := range reg.Assets {
		ts, ok := byType[a.FileType]
		if !ok {
			ts = &TypeStat{FileType: a.FileType}
			byType[a.FileType] = ts
		}
		ts.Count++
		ts.Bytes += a.FileSize

		at := a.RegisteredAt()
		if resp.Oldest.IsZero() || at.Before(resp.Oldest) {
			resp.Oldest = at
		}
		if at.After(resp.Newest) {
			resp.Newest = at
		}
	}

	for _, ts := range byType {
		resp.ByType = append(resp.ByType, *ts)
	}
	sort.Slice(resp.ByType, func(i, j int) bool {
		if resp.ByType[i].Count != resp.ByType[j].Count {
			return resp.ByType[i].Count > resp.ByType[j].Count
		}
		return resp.ByType[i].FileType < resp.ByType[j].FileType
	})

	return resp, nil
}
