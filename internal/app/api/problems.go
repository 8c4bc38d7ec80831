package api

import (
	"errors"

	woapp "github.com/Apurer/workorder-dispatch/internal/domains/workorders/application"
	woports "github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
	apierrors "github.com/Apurer/workorder-dispatch/internal/shared/errors"
)

// MapError translates work order sentinels into problem details for the bus endpoint.
func MapError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, woports.ErrNotFound), errors.Is(err, woports.ErrEmployeeNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, woapp.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, woapp.ErrInvalidInput):
		return apierrors.ErrInvalidInput.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
