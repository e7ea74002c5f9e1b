package domain

// RegistrySeed is the domain tag mixed into every registry address
const RegistrySeed = "asset_registry"

// Storage layout constants. A registry account reserves
// AccountSpace(capacity) bytes when it is created and never grows.
const (
	DiscriminatorSize = 8
	RecordSlotSize    = 350
	DefaultCapacity   = 300
)

// Registry is the per-owner aggregate of registered assets
type Registry struct {
	Owner      PublicKey     `json:"owner"`
	Assets     []AssetRecord `json:"assets"`
	AssetCount uint32        `json:"asset_count"` // Lifetime registrations, never decremented
	Bump       uint8         `json:"bump"`
}

// NewRegistry creates an empty registry for owner
func NewRegistry(owner PublicKey, bump uint8) *Registry {
	return &Registry{
		Owner:  owner,
		Assets: []AssetRecord{},
		Bump:   bump,
	}
}

// RegistrySeeds returns the derivation seeds for owner's registry
func RegistrySeeds(owner PublicKey) [][]byte {
	return [][]byte{[]byte(RegistrySeed), owner.Bytes()}
}

// AccountSpace returns the reserved account size for a registry holding
// up to capacity records
func AccountSpace(capacity int) int {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return DiscriminatorSize + PublicKeySize + 4 + capacity*RecordSlotSize + 1
}

// Clone returns a deep copy
func (r *Registry) Clone() *Registry {
	c := *r
	c.Assets = make([]AssetRecord, len(r.Assets))
	copy(c.Assets, r.Assets)
	return &c
}

// Append adds rec and bumps the lifetime counter.
// The registry is left untouched when the record does not fit.
func (r *Registry) Append(rec AssetRecord, capacity int) error {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if len(r.Assets) >= capacity {
		return ErrStorageExhausted
	}
	if r.EncodedSize()+rec.EncodedSize() > AccountSpace(capacity) {
		return ErrStorageExhausted
	}

	r.Assets = append(r.Assets, rec)
	r.AssetCount++
	return nil
}

// RemoveByContentID drops every record whose ContentID equals cid,
// preserving the order of the survivors. Returns ErrAssetNotFound and leaves
// the registry untouched when nothing matched.
func (r *Registry) RemoveByContentID(cid string) (int, error) {
	kept := make([]AssetRecord, 0, len(r.Assets))
	for _, a := range r.Assets {
		if a.ContentID != cid {
			kept = append(kept, a)
		}
	}

	removed := len(r.Assets) - len(kept)
	if removed == 0 {
		return 0, ErrAssetNotFound
	}

	r.Assets = kept
	return removed, nil
}

// Find returns all records with the given content ID
func (r *Registry) Find(cid string) []AssetRecord {
	var matches []AssetRecord
	for _, a := range r.Assets {
		if a.ContentID == cid {
			matches = append(matches, a)
		}
	}
	return matches
}

// TotalSize sums FileSize over the current records
func (r *Registry) TotalSize() uint64 {
	var total uint64
	for _, a := range r.Assets {
		total += a.FileSize
	}
	return total
}
