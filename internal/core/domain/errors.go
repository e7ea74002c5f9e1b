package domain

import "errors"

// Admission and ownership errors
var (
	ErrInvalidContentID   = errors.New("invalid CID format")
	ErrInvalidName        = errors.New("invalid asset name")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidFileType    = errors.New("invalid file type")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrUnauthorized       = errors.New("unauthorized: only asset owner can perform this action")
)

// Storage-layer errors
var (
	ErrRegistryNotFound = errors.New("registry not initialized for owner")
	ErrAddressMismatch  = errors.New("registry address does not match owner seeds")
	ErrStorageExhausted = errors.New("registry storage exhausted")
	ErrInvalidSignature = errors.New("invalid signer signature")
	ErrInvalidAccount   = errors.New("invalid registry account data")
)

// IsValidationError reports whether err is one of the admission check failures
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidContentID) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidDescription) ||
		errors.Is(err, ErrInvalidFileType)
}
