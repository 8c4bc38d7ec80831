package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

var (
	_ ports.Repository     = (*Store)(nil)
	_ ports.UnitOfWork     = (*Store)(nil)
	_ ports.NumberSequence = (*Store)(nil)
)

var (
	ErrDuplicateNumber   = errors.New("work order number already used")
	ErrDuplicateSequence = ports.ErrDuplicateSequence
)

// Store is an in-memory work order persistence adapter. Units of work run one
// at a time and only become visible when they succeed.
type Store struct {
	txMu     sync.Mutex
	mu       sync.RWMutex
	orders   map[uuid.UUID]*domain.WorkOrder
	byNumber map[string]uuid.UUID
	audits   map[uuid.UUID][]domain.AuditEntry
	lastNum  int64
}

func NewStore() *Store {
	return &Store{
		orders:   map[uuid.UUID]*domain.WorkOrder{},
		byNumber: map[string]uuid.UUID{},
		audits:   map[uuid.UUID][]domain.AuditEntry{},
	}
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.hydrate(order), nil
}

func (s *Store) GetByNumber(_ context.Context, number string) (*domain.WorkOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byNumber[strings.ToUpper(number)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.hydrate(s.orders[id]), nil
}

// Search returns matches ordered by number.
func (s *Store) Search(_ context.Context, spec ports.SearchSpecification) ([]*domain.WorkOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.WorkOrder
	for _, order := range s.orders {
		if matches(order, spec) {
			out = append(out, s.hydrate(order))
		}
	}
	slices.SortFunc(out, func(a, b *domain.WorkOrder) int { return strings.Compare(a.Number, b.Number) })
	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
	}
	return out, nil
}

func (s *Store) NextNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNum++
	return s.lastNum, nil
}

// Do runs fn against a staged view and applies its writes only when fn succeeds.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx ports.TransitionStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &stagedTx{store: s, orders: map[uuid.UUID]*domain.WorkOrder{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.commit(tx)
	return nil
}

func (s *Store) commit(tx *stagedTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, order := range tx.orders {
		if prev, ok := s.orders[id]; ok {
			delete(s.byNumber, strings.ToUpper(prev.Number))
		}
		s.orders[id] = order
		s.byNumber[strings.ToUpper(order.Number)] = id
	}
	for _, entry := range tx.audits {
		s.audits[entry.WorkOrderID] = append(s.audits[entry.WorkOrderID], entry)
	}
}

// hydrate must be called with mu held.
func (s *Store) hydrate(order *domain.WorkOrder) *domain.WorkOrder {
	c := order.Clone()
	entries := append([]domain.AuditEntry(nil), s.audits[order.ID]...)
	slices.SortFunc(entries, func(a, b domain.AuditEntry) int { return a.Sequence - b.Sequence })
	c.AuditEntries = entries
	return c
}

func matches(order *domain.WorkOrder, spec ports.SearchSpecification) bool {
	if len(spec.Statuses) > 0 && !slices.ContainsFunc(spec.Statuses, order.Status.Equals) {
		return false
	}
	if spec.CreatorUserName != "" && (order.Creator == nil || !strings.EqualFold(order.Creator.UserName, spec.CreatorUserName)) {
		return false
	}
	if spec.AssigneeUserName != "" && (order.Assignee == nil || !strings.EqualFold(order.Assignee.UserName, spec.AssigneeUserName)) {
		return false
	}
	return true
}

type stagedTx struct {
	store  *Store
	orders map[uuid.UUID]*domain.WorkOrder
	audits []domain.AuditEntry
}

func (t *stagedTx) LockWorkOrder(_ context.Context, id uuid.UUID) (domain.WorkOrderStatus, bool, error) {
	if staged, ok := t.orders[id]; ok {
		return staged.Status, true, nil
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	order, ok := t.store.orders[id]
	if !ok {
		return domain.StatusNone, false, nil
	}
	return order.Status, true, nil
}

func (t *stagedTx) MaxAuditSequence(_ context.Context, workOrderID uuid.UUID) (int, error) {
	t.store.mu.RLock()
	entries := append([]domain.AuditEntry(nil), t.store.audits[workOrderID]...)
	t.store.mu.RUnlock()
	for _, e := range t.audits {
		if e.WorkOrderID == workOrderID {
			entries = append(entries, e)
		}
	}
	return domain.NextSequence(entries) - 1, nil
}

func (t *stagedTx) SaveWorkOrder(_ context.Context, order *domain.WorkOrder) error {
	if order == nil {
		return errors.New("work order is nil")
	}
	if order.IsNew() {
		return errors.New("work order has no id")
	}
	if err := order.Validate(); err != nil {
		return err
	}
	key := strings.ToUpper(order.Number)
	t.store.mu.RLock()
	owner, taken := t.store.byNumber[key]
	t.store.mu.RUnlock()
	if taken && owner != order.ID {
		return fmt.Errorf("%w: %s", ErrDuplicateNumber, order.Number)
	}
	c := order.Clone()
	c.AuditEntries = nil
	t.orders[order.ID] = c
	return nil
}

func (t *stagedTx) AppendAuditEntry(ctx context.Context, entry domain.AuditEntry) error {
	maxSeq, err := t.MaxAuditSequence(ctx, entry.WorkOrderID)
	if err != nil {
		return err
	}
	if entry.Sequence <= maxSeq {
		return fmt.Errorf("%w: work order %s sequence %d", ErrDuplicateSequence, entry.WorkOrderID, entry.Sequence)
	}
	t.audits = append(t.audits, entry)
	return nil
}
