package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/domain"
	"github.com/Apurer/workorder-dispatch/internal/domains/workorders/ports"
	"github.com/Apurer/workorder-dispatch/internal/platform/migrations"
)

var (
	_ ports.Repository      = (*Repository)(nil)
	_ ports.UnitOfWork      = (*Repository)(nil)
	_ ports.NumberSequence  = (*Repository)(nil)
	_ ports.TransitionStore = (*txStore)(nil)
)

// Repository persists work orders and audit entries in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkOrder, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *Repository) GetByNumber(ctx context.Context, number string) (*domain.WorkOrder, error) {
	return r.getOne(ctx, "UPPER(number) = UPPER(?)", number)
}

// Search filters by status codes and employee user names, ordered by number.
func (r *Repository) Search(ctx context.Context, spec ports.SearchSpecification) ([]*domain.WorkOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&workOrderRecord{})
	if len(spec.Statuses) > 0 {
		codes := make([]string, 0, len(spec.Statuses))
		for _, s := range spec.Statuses {
			codes = append(codes, s.Code())
		}
		q = q.Where("status IN ?", codes)
	}
	if name := strings.TrimSpace(spec.CreatorUserName); name != "" {
		q = q.Where("creator_id IN (?)", r.db.Model(&employeeRecord{}).Select("id").Where("LOWER(user_name) = LOWER(?)", name))
	}
	if name := strings.TrimSpace(spec.AssigneeUserName); name != "" {
		q = q.Where("assignee_id IN (?)", r.db.Model(&employeeRecord{}).Select("id").Where("LOWER(user_name) = LOWER(?)", name))
	}
	if spec.Limit > 0 {
		q = q.Limit(spec.Limit)
	}
	var records []workOrderRecord
	if err := q.Order("number").Find(&records).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, r.db.WithContext(ctx), records)
}

// NextNumber draws from the work order number sequence.
func (r *Repository) NextNumber(ctx context.Context) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	var n int64
	if err := r.db.WithContext(ctx).Raw("SELECT nextval(?::regclass)", migrations.WorkOrderNumberSequence).Scan(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Do runs fn inside one database transaction.
func (r *Repository) Do(ctx context.Context, fn func(ctx context.Context, tx ports.TransitionStore) error) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &txStore{db: tx})
	})
}

func (r *Repository) getOne(ctx context.Context, query string, args ...any) (*domain.WorkOrder, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record workOrderRecord
	if err := r.db.WithContext(ctx).Where(query, args...).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	orders, err := r.hydrate(ctx, r.db.WithContext(ctx), []workOrderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// hydrate loads the employees and audit entries referenced by records.
func (r *Repository) hydrate(_ context.Context, db *gorm.DB, records []workOrderRecord) ([]*domain.WorkOrder, error) {
	if len(records) == 0 {
		return nil, nil
	}
	orderIDs := make([]uuid.UUID, 0, len(records))
	employeeIDs := make([]uuid.UUID, 0, len(records)*2)
	for _, rec := range records {
		orderIDs = append(orderIDs, rec.ID)
		employeeIDs = append(employeeIDs, rec.CreatorID)
		if rec.AssigneeID != nil {
			employeeIDs = append(employeeIDs, *rec.AssigneeID)
		}
	}

	var employees []employeeRecord
	if err := db.Where("id IN ?", employeeIDs).Find(&employees).Error; err != nil {
		return nil, err
	}
	people := make(map[uuid.UUID]*domain.Employee, len(employees))
	for _, e := range employees {
		people[e.ID] = e.toDomain()
	}

	var entries []auditEntryRecord
	if err := db.Where("work_order_id IN ?", orderIDs).Order("work_order_id, sequence").Find(&entries).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[uuid.UUID][]auditEntryRecord, len(records))
	for _, e := range entries {
		byOrder[e.WorkOrderID] = append(byOrder[e.WorkOrderID], e)
	}

	out := make([]*domain.WorkOrder, 0, len(records))
	for _, rec := range records {
		order, err := rec.toDomain(people, byOrder[rec.ID])
		if err != nil {
			return nil, fmt.Errorf("work order %s: %w", rec.Number, err)
		}
		out = append(out, order)
	}
	return out, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres work order repository not configured")
	}
	return nil
}

// txStore is the TransitionStore bound to one open transaction.
type txStore struct {
	db *gorm.DB
}

// LockWorkOrder takes a row lock with SELECT ... FOR UPDATE.
func (s *txStore) LockWorkOrder(_ context.Context, id uuid.UUID) (domain.WorkOrderStatus, bool, error) {
	var record workOrderRecord
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id", "status").Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.StatusNone, false, nil
	}
	if err != nil {
		return domain.StatusNone, false, err
	}
	status, err := domain.StatusFromCode(record.Status)
	return status, true, err
}

func (s *txStore) MaxAuditSequence(_ context.Context, workOrderID uuid.UUID) (int, error) {
	var maxSeq int
	err := s.db.Model(&auditEntryRecord{}).
		Where("work_order_id = ?", workOrderID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&maxSeq).Error
	return maxSeq, err
}

func (s *txStore) SaveWorkOrder(_ context.Context, order *domain.WorkOrder) error {
	if order == nil {
		return errors.New("work order is nil")
	}
	record := toWorkOrderRecord(order)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"title":          record.Title,
			"description":    record.Description,
			"room_number":    record.RoomNumber,
			"status":         record.Status,
			"assignee_id":    record.AssigneeID,
			"created_date":   record.CreatedDate,
			"assigned_date":  record.AssignedDate,
			"completed_date": record.CompletedDate,
			"updated_at":     gorm.Expr("NOW()"),
		}),
	}).Create(&record).Error
}

func (s *txStore) AppendAuditEntry(_ context.Context, entry domain.AuditEntry) error {
	record := toAuditEntryRecord(entry)
	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: work order %s sequence %d", ports.ErrDuplicateSequence, entry.WorkOrderID, entry.Sequence)
		}
		return err
	}
	return nil
}
