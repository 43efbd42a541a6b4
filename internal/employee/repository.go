package employee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"employee-service/internal/metrics"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const tableName = "employees"

type Repository interface {
	Create(ctx context.Context, employee *Employee) error
	GetAll(ctx context.Context) ([]Employee, error)
	GetByID(ctx context.Context, id int) (*Employee, error)
	Update(ctx context.Context, employee *Employee) error
	Delete(ctx context.Context, id int) error
	DeleteAll(ctx context.Context) (int, error)
	Search(ctx context.Context, filter Filter) ([]Employee, error)
	Ages(ctx context.Context) ([]int, error)
	// RunInTx runs fn against a repository bound to a single transaction.
	// The transaction is rolled back when fn returns an error.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

type repository struct {
	db      bun.IDB
	root    *bun.DB
	metrics *metrics.DatabaseMetrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: db, root: db, metrics: m.DB()}
}

func (r *repository) observe(ctx context.Context, op string, start time.Time, err error) {
	if errors.Is(err, ErrEmployeeNotFound) {
		err = nil
	}
	r.metrics.RecordQuery(ctx, op, tableName, time.Since(start), err)
}

func (r *repository) Create(ctx context.Context, employee *Employee) (err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "insert", start, err) }()

	_, err = r.db.NewInsert().Model(employee).Exec(ctx)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *repository) GetAll(ctx context.Context) (employees []Employee, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "select", start, err) }()

	employees = make([]Employee, 0)
	err = r.db.NewSelect().
		Model(&employees).
		Order("e.name ASC", "e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (employee *Employee, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "select", start, err) }()

	employee = new(Employee)
	err = r.db.NewSelect().Model(employee).Where("e.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("get employee %d: %w", id, err)
	}
	return employee, nil
}

func (r *repository) Update(ctx context.Context, employee *Employee) (err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "update", start, err) }()

	result, err := r.db.NewUpdate().
		Model(employee).
		Column("name", "employee_id", "photo", "age").
		WherePK().
		Exec(ctx)
	if err != nil {
		return mapWriteError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int) (err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "delete", start, err) }()

	result, err := r.db.NewDelete().Model((*Employee)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete employee %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (r *repository) DeleteAll(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "delete", start, err) }()

	result, err := r.db.NewDelete().Model((*Employee)(nil)).Where("TRUE").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete all employees: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (r *repository) Search(ctx context.Context, filter Filter) (employees []Employee, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "select", start, err) }()

	employees = make([]Employee, 0)
	q := r.db.NewSelect().Model(&employees)
	// every word must match name or employee_id
	for _, word := range strings.Fields(filter.Query) {
		pattern := "%" + escapeLike(word) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("e.name ILIKE ?", pattern).WhereOr("e.employee_id ILIKE ?", pattern)
		})
	}
	if filter.Age != nil {
		q = q.Where("e.age = ?", *filter.Age)
	}

	if err = q.Order("e.name ASC", "e.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}
	return employees, nil
}

func (r *repository) Ages(ctx context.Context) (ages []int, err error) {
	start := time.Now()
	defer func() { r.observe(ctx, "select", start, err) }()

	ages = make([]int, 0)
	err = r.db.NewSelect().
		Model((*Employee)(nil)).
		ColumnExpr("DISTINCT e.age").
		OrderExpr("e.age ASC").
		Scan(ctx, &ages)
	if err != nil {
		return nil, fmt.Errorf("list ages: %w", err)
	}
	return ages, nil
}

func (r *repository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	if r.root == nil {
		// already inside a transaction
		return fn(ctx, r)
	}
	return r.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &repository{db: tx, metrics: r.metrics})
	})
}

func mapWriteError(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return ErrDuplicateEmployeeID
	}
	return fmt.Errorf("write employee: %w", err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
