package employee

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository keeps employees in process memory. Used for local runs
// without Postgres and in tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	byID   map[int]Employee
	nextID int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int]Employee), nextID: 1}
}

func (r *MemoryRepository) Create(_ context.Context, employee *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.employeeIDTaken(employee.EmployeeID, 0) {
		return ErrDuplicateEmployeeID
	}
	employee.ID = r.nextID
	r.nextID++
	r.byID[employee.ID] = *employee
	return nil
}

func (r *MemoryRepository) GetAll(_ context.Context) ([]Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(Employee) bool { return true }), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int) (*Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &e, nil
}

func (r *MemoryRepository) Update(_ context.Context, employee *Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[employee.ID]; !ok {
		return ErrEmployeeNotFound
	}
	if r.employeeIDTaken(employee.EmployeeID, employee.ID) {
		return ErrDuplicateEmployeeID
	}
	r.byID[employee.ID] = *employee
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) DeleteAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.byID)
	r.byID = make(map[int]Employee)
	return n, nil
}

func (r *MemoryRepository) Search(_ context.Context, filter Filter) ([]Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	words := strings.Fields(strings.ToLower(filter.Query))
	return r.sorted(func(e Employee) bool {
		if filter.Age != nil && e.Age != *filter.Age {
			return false
		}
		name, employeeID := strings.ToLower(e.Name), strings.ToLower(e.EmployeeID)
		for _, word := range words {
			if !strings.Contains(name, word) && !strings.Contains(employeeID, word) {
				return false
			}
		}
		return true
	}), nil
}

func (r *MemoryRepository) Ages(_ context.Context) ([]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int]struct{}, len(r.byID))
	ages := make([]int, 0, len(r.byID))
	for _, e := range r.byID {
		if _, ok := seen[e.Age]; ok {
			continue
		}
		seen[e.Age] = struct{}{}
		ages = append(ages, e.Age)
	}
	sort.Ints(ages)
	return ages, nil
}

// RunInTx serialises transactions and restores the previous contents when fn
// fails. Readers outside the transaction may observe intermediate state.
func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	snapshot := make(map[int]Employee, len(r.byID))
	for id, e := range r.byID {
		snapshot[id] = e
	}
	nextID := r.nextID
	r.mu.RUnlock()

	if err := fn(ctx, r); err != nil {
		r.mu.Lock()
		r.byID = snapshot
		r.nextID = nextID
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *MemoryRepository) employeeIDTaken(employeeID string, exceptID int) bool {
	for id, e := range r.byID {
		if id != exceptID && e.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) sorted(keep func(Employee) bool) []Employee {
	out := make([]Employee, 0, len(r.byID))
	for _, e := range r.byID {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
