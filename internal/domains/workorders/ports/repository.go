package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
)

var (
	ErrNotFound         = errors.New("work order not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrLockNotAcquired is returned when a transition lock could not be taken before the context ended.
	ErrLockNotAcquired = errors.New("transition lock not acquired")
	// ErrDuplicateSequence is returned when another writer already recorded the audit sequence.
	ErrDuplicateSequence = errors.New("audit sequence already recorded")
)

// SearchSpecification filters work orders. Zero values match everything.
type SearchSpecification struct {
	Statuses         []domain.WorkOrderStatus
	CreatorUserName  string
	AssigneeUserName string
	Limit            int
}

// Repository reads work orders. Writes only happen through a UnitOfWork.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error)
	GetByNumber(ctx context.Context, number string) (*domain.WorkOrder, error)
	Search(ctx context.Context, spec SearchSpecification) ([]*domain.WorkOrder, error)
}

// TransitionStore is the write side visible inside one unit of work.
type TransitionStore interface {
	// LockWorkOrder holds the stored row for the rest of the unit and returns
	// its persisted status. found is false for work orders never saved.
	LockWorkOrder(ctx context.Context, id uuid.UUID) (status domain.WorkOrderStatus, found bool, err error)
	MaxAuditSequence(ctx context.Context, workOrderID uuid.UUID) (int, error)
	// SaveWorkOrder inserts or updates the aggregate row. Audit entries are
	// written separately through AppendAuditEntry.
	SaveWorkOrder(ctx context.Context, order *domain.WorkOrder) error
	AppendAuditEntry(ctx context.Context, entry domain.AuditEntry) error
}

// UnitOfWork commits everything fn writes, or nothing when fn fails.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx TransitionStore) error) error
}

// NumberSequence issues work order numbers.
type NumberSequence interface {
	NextNumber(ctx context.Context) (int64, error)
}

// EmployeeDirectory resolves the acting user.
type EmployeeDirectory interface {
	GetByUserName(ctx context.Context, userName string) (*domain.Employee, error)
	List(ctx context.Context) ([]*domain.Employee, error)
	Save(ctx context.Context, employee *domain.Employee) error
}

// UnlockFunc releases a lock acquired by TransitionLocker.
type UnlockFunc func(ctx context.Context) error

// TransitionLocker serializes transitions on the same work order across processes.
type TransitionLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
