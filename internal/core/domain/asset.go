package domain

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Admission limits for registered assets (byte lengths)
const (
	MaxContentIDLength   = 100
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxFileTypeLength    = 50
)

// AssetRecord represents the metadata of one registered asset.
// The content itself lives elsewhere; ContentID only names it.
type AssetRecord struct {
	ContentID   string    `json:"cid"`         // e.g. an IPFS CID
	Name        string    `json:"name"`        // Display name
	Description string    `json:"description"` // Optional free text
	FileType    string    `json:"file_type"`   // MIME type
	FileSize    uint64    `json:"file_size"`   // Bytes
	Owner       PublicKey `json:"owner"`
	Timestamp   int64     `json:"timestamp"` // Unix seconds
	Bump        uint8     `json:"bump"`
}

// ValidateAsset runs the admission checks in order and returns the first failure
func ValidateAsset(contentID, name, description, fileType string) error {
	if len(contentID) == 0 || len(contentID) > MaxContentIDLength {
		return ErrInvalidContentID
	}
	if len(name) == 0 || len(name) > MaxNameLength {
		return ErrInvalidName
	}
	if len(description) > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	if len(fileType) == 0 || len(fileType) > MaxFileTypeLength {
		return ErrInvalidFileType
	}
	return nil
}

// RegisteredAt returns the registration time
func (a AssetRecord) RegisteredAt() time.Time {
	return time.Unix(a.Timestamp, 0)
}

// GetDisplayDate formats the registration time with the given layout
func (a AssetRecord) GetDisplayDate(layout string) string {
	if layout == "" {
		layout = "2006-01-02"
	}
	return a.RegisteredAt().Format(layout)
}

// GetSizeString returns the file size in human-readable form ("2.0 kB")
func (a AssetRecord) GetSizeString() string {
	return humanize.Bytes(a.FileSize)
}
