package store

import domainerrors "github.com/listenupapp/circulation/internal/errors"

// Sentinel errors. They carry domain error codes so callers can match them
// with errors.Is against either these values or the domain sentinels.
var (
	ErrNotFound = &domainerrors.Error{
		Code:    domainerrors.CodeNotFound,
		Message: "record not found",
	}

	ErrAlreadyExists = &domainerrors.Error{
		Code:    domainerrors.CodeAlreadyExists,
		Message: "record already exists",
	}

	ErrCorrupt = &domainerrors.Error{
		Code:    domainerrors.CodeInternal,
		Message: "stored record is corrupt",
	}
)
