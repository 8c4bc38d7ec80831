package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
)

func newOrder(t *testing.T, number string, creator *domain.Employee) *domain.WorkOrder {
	t.Helper()
	order, err := domain.NewWorkOrderBuilder(number, creator).WithTitle("Fix " + number).Build()
	require.NoError(t, err)
	order.ID = uuid.New()
	return order
}

func persist(t *testing.T, s *Store, order *domain.WorkOrder, seq int) {
	t.Helper()
	err := s.Do(context.Background(), func(ctx context.Context, tx ports.TransitionStore) error {
		if err := tx.SaveWorkOrder(ctx, order); err != nil {
			return err
		}
		return tx.AppendAuditEntry(ctx, domain.NewAuditEntry(order.ID, seq, order.Creator, time.Now(), domain.StatusDraft, order.Status, "Save"))
	})
	require.NoError(t, err)
}

func TestStore_CommitsOnlySuccessfulUnits(t *testing.T) {
	creator, err := domain.NewEmployee("jpalermo", "Jeffrey", "Palermo", "")
	require.NoError(t, err)
	s := NewStore()
	order := newOrder(t, "WO-001", creator)

	boom := errors.New("boom")
	err = s.Do(context.Background(), func(ctx context.Context, tx ports.TransitionStore) error {
		require.NoError(t, tx.SaveWorkOrder(ctx, order))
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.GetByID(context.Background(), order.ID)
	require.ErrorIs(t, err, ports.ErrNotFound)

	persist(t, s, order, 1)
	stored, err := s.GetByNumber(context.Background(), "wo-001")
	require.NoError(t, err)
	require.Len(t, stored.AuditEntries, 1)

	stored.Title = "mutated"
	again, err := s.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, "Fix WO-001", again.Title)
}

func TestStore_TransitionStoreGuards(t *testing.T) {
	creator, err := domain.NewEmployee("jpalermo", "Jeffrey", "Palermo", "")
	require.NoError(t, err)
	s := NewStore()
	order := newOrder(t, "WO-001", creator)
	persist(t, s, order, 1)

	err = s.Do(context.Background(), func(ctx context.Context, tx ports.TransitionStore) error {
		status, found, err := tx.LockWorkOrder(ctx, order.ID)
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, domain.StatusDraft, status)

		_, found, err = tx.LockWorkOrder(ctx, uuid.New())
		require.NoError(t, err)
		require.False(t, found)

		maxSeq, err := tx.MaxAuditSequence(ctx, order.ID)
		require.NoError(t, err)
		require.Equal(t, 1, maxSeq)

		dup := domain.NewAuditEntry(order.ID, 1, creator, time.Now(), domain.StatusDraft, domain.StatusDraft, "Save")
		require.ErrorIs(t, tx.AppendAuditEntry(ctx, dup), ErrDuplicateSequence)

		other := newOrder(t, "WO-001", creator)
		return tx.SaveWorkOrder(ctx, other)
	})
	require.ErrorIs(t, err, ErrDuplicateNumber)
}

func TestStore_SearchAndNumbers(t *testing.T) {
	creator, err := domain.NewEmployee("jpalermo", "Jeffrey", "Palermo", "")
	require.NoError(t, err)
	assignee, err := domain.NewEmployee("hsimpson", "Homer", "Simpson", "")
	require.NoError(t, err)
	s := NewStore()

	first := newOrder(t, "WO-002", creator)
	second := newOrder(t, "WO-001", creator)
	second.Assign(assignee)
	second.ChangeStatus(domain.StatusAssigned)
	persist(t, s, first, 1)
	persist(t, s, second, 1)

	all, err := s.Search(context.Background(), ports.SearchSpecification{})
	require.NoError(t, err)
	require.Equal(t, "WO-001", all[0].Number)
	require.Equal(t, "WO-002", all[1].Number)

	assigned, err := s.Search(context.Background(), ports.SearchSpecification{Statuses: []domain.WorkOrderStatus{domain.StatusAssigned}})
	require.NoError(t, err)
	require.Len(t, assigned, 1)

	mine, err := s.Search(context.Background(), ports.SearchSpecification{AssigneeUserName: "HSIMPSON", Limit: 5})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, second.ID, mine[0].ID)

	limited, err := s.Search(context.Background(), ports.SearchSpecification{CreatorUserName: "jpalermo", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	n1, _ := s.NextNumber(context.Background())
	n2, _ := s.NextNumber(context.Background())
	require.Equal(t, []int64{1, 2}, []int64{n1, n2})
}

func TestEmployeeDirectory(t *testing.T) {
	homer, err := domain.NewEmployee("hsimpson", "Homer", "Simpson", "", domain.RoleFulfiller)
	require.NoError(t, err)
	dir := NewEmployeeDirectory(homer)

	got, err := dir.GetByUserName(context.Background(), "HSimpson")
	require.NoError(t, err)
	require.True(t, got.Is(homer))
	got.Roles[0] = domain.RoleCreator

	again, err := dir.GetByUserName(context.Background(), "hsimpson")
	require.NoError(t, err)
	require.True(t, again.CanFulfillWorkOrders())

	_, err = dir.GetByUserName(context.Background(), "nobody")
	require.ErrorIs(t, err, ports.ErrEmployeeNotFound)
	require.ErrorIs(t, dir.Save(context.Background(), &domain.Employee{}), domain.ErrEmptyUserName)
}
