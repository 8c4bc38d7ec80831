package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/application/types"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain/commands"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

// DefaultLockTTL bounds how long a transition lock survives a crashed holder.
const DefaultLockTTL = 10 * time.Second

var _ ports.Transitioner = (*Orchestrator)(nil)

// Orchestrator executes state commands and persists the work order together
// with its new audit entry. It does not check transition legality; callers
// go through CommandHandler for that.
type Orchestrator struct {
	uow     ports.UnitOfWork
	locker  ports.TransitionLocker
	lockTTL time.Duration
	now     func() time.Time
}

type OrchestratorOption func(*Orchestrator)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLocker serializes transitions per work order across processes.
func WithLocker(locker ports.TransitionLocker, ttl time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.locker = locker
		if ttl > 0 {
			o.lockTTL = ttl
		}
	}
}

func NewOrchestrator(uow ports.UnitOfWork, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		uow:     uow,
		lockTTL: DefaultLockTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Execute runs cmd and records exactly one audit entry. On any failure the
// command's work order is restored to its state before the call.
func (o *Orchestrator) Execute(ctx context.Context, cmd commands.StateCommand) (*types.StateCommandResult, error) {
	if cmd == nil || cmd.WorkOrder() == nil {
		return nil, fmt.Errorf("%w: command has no work order", ErrInvalidInput)
	}
	order := cmd.WorkOrder()
	user := cmd.CurrentUser()
	snapshot := order.Clone()
	begin := order.Status
	now := o.now()

	if o.locker != nil && !order.IsNew() {
		unlock, err := o.locker.Lock(ctx, LockKey(order.ID), o.lockTTL)
		if err != nil {
			return nil, mapError(err)
		}
		defer func() { _ = unlock(context.WithoutCancel(ctx)) }()
	}

	err := o.uow.Do(ctx, func(ctx context.Context, tx ports.TransitionStore) error {
		if order.IsNew() {
			order.ID = uuid.New()
		} else {
			stored, found, err := tx.LockWorkOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			if found && !stored.Equals(begin) {
				return fmt.Errorf("%w: stored status is %s, command started from %s", ErrStaleWorkOrder, stored, begin)
			}
		}
		maxSeq, err := tx.MaxAuditSequence(ctx, order.ID)
		if err != nil {
			return err
		}

		cmd.Execute(commands.ExecutionContext{CurrentDateTime: now})
		entry := domain.NewAuditEntry(order.ID, maxSeq+1, user, now, begin, order.Status, cmd.TransitionVerbPresentTense())
		order.AppendAuditEntry(entry)
		if err := order.Validate(); err != nil {
			return err
		}

		if err := tx.SaveWorkOrder(ctx, order); err != nil {
			return err
		}
		return tx.AppendAuditEntry(ctx, entry)
	})
	if err != nil {
		*order = *snapshot
		return nil, mapError(err)
	}

	return &types.StateCommandResult{
		Outcome:                    types.OutcomeExecuted,
		CommandName:                cmd.Name(),
		WorkOrder:                  order,
		TransitionVerbPresentTense: cmd.TransitionVerbPresentTense(),
		Message:                    fmt.Sprintf("%s has %s work order %s", user.FullName(), cmd.TransitionVerbPastTense(), order.Number),
	}, nil
}

// LockKey names the per-work-order transition lock.
func LockKey(id uuid.UUID) string {
	return "workorders:transition:" + id.String()
}

// LastAuditEntry returns the newest entry recorded on order.
func LastAuditEntry(order *domain.WorkOrder) (domain.AuditEntry, error) {
	if order == nil || len(order.AuditEntries) == 0 {
		return domain.AuditEntry{}, errors.New("work order has no audit entries")
	}
	last := order.AuditEntries[0]
	for _, e := range order.AuditEntries[1:] {
		if e.Sequence > last.Sequence {
			last = e
		}
	}
	return last, nil
}
