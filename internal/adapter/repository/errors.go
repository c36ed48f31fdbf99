package repository

import (
	stderrors "errors"

	"foodshare/pkg/errors"
)

// asAppError passes domain errors raised inside a transaction through untouched
// and wraps anything else as an internal failure.
func asAppError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return errors.Internal(message, err)
}
