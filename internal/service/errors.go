package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/edumanage-api/internal/repository"
	appErrors "github.com/noah-isme/edumanage-api/pkg/errors"
)

// persistenceError maps repository failures onto API errors. Constraint
// violations become client errors; anything else is an internal error.
func persistenceError(err error, entity, action string, duplicateMsg, referenceMsg string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrDuplicate) && duplicateMsg != "":
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, duplicateMsg)
	case errors.Is(err, repository.ErrForeignKey) && referenceMsg != "":
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, referenceMsg)
	case errors.Is(err, repository.ErrCheckViolation):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+entity+" payload")
	default:
		return appErrors.Internal(err, "failed to "+action+" "+entity)
	}
}
