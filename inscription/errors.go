package inscription

import "errors"

var (
	// ErrReservedKey indicates an attempt to store the reserved "cmd" key.
	ErrReservedKey = errors.New("inscription: metadata key is reserved")

	// ErrEmptyKey indicates an attempt to store an empty metadata key.
	ErrEmptyKey = errors.New("inscription: metadata key is empty")

	// ErrNotInscription indicates a locking script does not carry an ord envelope.
	ErrNotInscription = errors.New("inscription: not an inscription script")

	// ErrMalformedMetadata indicates the MAP envelope after an inscription is invalid.
	ErrMalformedMetadata = errors.New("inscription: malformed MAP metadata")
)
