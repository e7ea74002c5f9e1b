package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateAsset(t *testing.T) {
	tests := []struct {
		name        string
		contentID   string
		assetName   string
		description string
		fileType    string
		wantErr     error
	}{
		{"valid", "Qm123", "photo.png", "", "image/png", nil},
		{"all at max", strings.Repeat("c", 100), strings.Repeat("n", 100), strings.Repeat("d", 500), strings.Repeat("t", 50), nil},
		{"empty cid", "", "n", "", "t", ErrInvalidContentID},
		{"cid 101 bytes", strings.Repeat("c", 101), "n", "", "t", ErrInvalidContentID},
		{"empty name", "c", "", "", "t", ErrInvalidName},
		{"name 101 bytes", "c", strings.Repeat("n", 101), "", "t", ErrInvalidName},
		{"description 501 bytes", "c", "n", strings.Repeat("d", 501), "t", ErrInvalidDescription},
		{"empty file type", "c", "n", "", "", ErrInvalidFileType},
		{"file type 51 bytes", "c", "n", "", strings.Repeat("t", 51), ErrInvalidFileType},
		{"cid checked before name", "", "", "", "", ErrInvalidContentID},
		{"name checked before description", "c", "", strings.Repeat("d", 501), "", ErrInvalidName},
		{"description checked before file type", "c", "n", strings.Repeat("d", 501), "", ErrInvalidDescription},
		// Limits count bytes, not characters
		{"multibyte name over limit", "c", strings.Repeat("é", 51), "", "t", ErrInvalidName},
		{"multibyte name at limit", "c", strings.Repeat("é", 50), "", "t", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAsset(tt.contentID, tt.assetName, tt.description, tt.fileType)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAsset() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil && !IsValidationError(err) {
				t.Errorf("IsValidationError(%v) = false", err)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	if IsValidationError(ErrAssetNotFound) {
		t.Error("ErrAssetNotFound is not a validation error")
	}
	if IsValidationError(ErrStorageExhausted) {
		t.Error("ErrStorageExhausted is not a validation error")
	}
	if !IsValidationError(errors.Join(errors.New("wrapped"), ErrInvalidName)) {
		t.Error("wrapped ErrInvalidName should be a validation error")
	}
}

func TestAssetRecord_Display(t *testing.T) {
	ts := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	a := AssetRecord{FileSize: 2048, Timestamp: ts.Unix()}

	if got := a.GetDisplayDate(""); got != "2024-03-15" {
		t.Errorf("GetDisplayDate() = %q, want %q", got, "2024-03-15")
	}
	if got := a.GetDisplayDate("Jan 2, 2006"); got != "Mar 15, 2024" {
		t.Errorf("GetDisplayDate(layout) = %q", got)
	}
	if got := a.GetSizeString(); got != "2.0 kB" {
		t.Errorf("GetSizeString() = %q, want %q", got, "2.0 kB")
	}
	if !a.RegisteredAt().Equal(ts) {
		t.Errorf("RegisteredAt() = %v, want %v", a.RegisteredAt(), ts)
	}
}
