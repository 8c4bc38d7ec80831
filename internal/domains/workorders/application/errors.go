package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid work order input")
	// ErrConflict signals a concurrent transition changed the work order first.
	ErrConflict = errors.New("work order was changed concurrently")
	// ErrPersistence wraps failures of the unit of work.
	ErrPersistence = errors.New("work order persistence failed")
	// ErrStaleWorkOrder is returned when the stored status differs from the command's work order.
	ErrStaleWorkOrder = errors.New("work order is stale")
)

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConflict), errors.Is(err, ErrPersistence):
		return err
	case errors.Is(err, domain.ErrEmptyNumber),
		errors.Is(err, domain.ErrEmptyTitle),
		errors.Is(err, domain.ErrNilCreator),
		errors.Is(err, domain.ErrUnknownStatus),
		errors.Is(err, domain.ErrEmptyUserName),
		errors.Is(err, commands.ErrUnknownCommand):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ErrStaleWorkOrder), errors.Is(err, ports.ErrLockNotAcquired), errors.Is(err, ports.ErrDuplicateSequence):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, ports.ErrNotFound), errors.Is(err, ports.ErrEmployeeNotFound),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
