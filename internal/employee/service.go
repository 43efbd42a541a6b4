package employee

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"employee-service/internal/messaging"
	"employee-service/internal/metrics"
	"employee-service/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateEmployeeID = errors.New("employee with this employee id already exists")
)

const (
	EventCreated = "employee.created"
	EventUpdated = "employee.updated"
	EventDeleted = "employee.deleted"
)

type Service interface {
	CreateEmployee(ctx context.Context, in Input) (*Employee, error)
	GetAllEmployees(ctx context.Context) ([]Employee, error)
	GetEmployeeByID(ctx context.Context, id int) (*Employee, error)
	UpdateEmployee(ctx context.Context, id int, in Input) (*Employee, error)
	PatchEmployee(ctx context.Context, id int, in Input) (*Employee, error)
	DeleteEmployee(ctx context.Context, id int) error
	ChartData(ctx context.Context) ([]ChartPoint, error)
	SearchEmployees(ctx context.Context, filter Filter) ([]Employee, error)
	ListAges(ctx context.Context) ([]int, error)
	PhotoURL(ctx context.Context, key string) (string, error)
}

type service struct {
	repo      Repository
	photos    storage.Storage
	publisher messaging.Publisher
	validate  *validator.Validate
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(repo Repository, photos storage.Storage, publisher messaging.Publisher, logger *slog.Logger, m *metrics.Metrics) Service {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &service{
		repo:      repo,
		photos:    photos,
		publisher: publisher,
		validate:  newValidator(),
		logger:    logger,
		metrics:   m,
	}
}

func (s *service) CreateEmployee(ctx context.Context, in Input) (*Employee, error) {
	info, err := validateInput(s.validate, &in, false)
	if err != nil {
		return nil, err
	}

	key, err := s.savePhoto(ctx, in.Photo, info)
	if err != nil {
		return nil, err
	}

	employee := &Employee{
		Name:       *in.Name,
		EmployeeID: *in.EmployeeID,
		Photo:      key,
		Age:        *in.Age,
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		s.removePhoto(ctx, key)
		return nil, err
	}

	s.logger.InfoContext(ctx, "employee created", "id", employee.ID, "employee_id", employee.EmployeeID)
	s.metrics.RecordEmployeeCreated(ctx)
	s.publish(ctx, EventCreated, employee)

	return employee, nil
}

func (s *service) GetAllEmployees(ctx context.Context) ([]Employee, error) {
	employees, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEmployeesListViewed(ctx)
	return employees, nil
}

func (s *service) GetEmployeeByID(ctx context.Context, id int) (*Employee, error) {
	if id <= 0 {
		return nil, ErrEmployeeNotFound
	}
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEmployeeViewed(ctx)
	return employee, nil
}

func (s *service) UpdateEmployee(ctx context.Context, id int, in Input) (*Employee, error) {
	return s.update(ctx, id, in, false)
}

func (s *service) PatchEmployee(ctx context.Context, id int, in Input) (*Employee, error) {
	return s.update(ctx, id, in, true)
}

func (s *service) update(ctx context.Context, id int, in Input, partial bool) (*Employee, error) {
	if id <= 0 {
		return nil, ErrEmployeeNotFound
	}
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info, err := validateInput(s.validate, &in, partial)
	if err != nil {
		return nil, err
	}

	oldPhoto := employee.Photo
	newPhoto := ""
	if in.Photo != nil {
		newPhoto, err = s.savePhoto(ctx, in.Photo, info)
		if err != nil {
			return nil, err
		}
		employee.Photo = newPhoto
	}
	if in.Name != nil {
		employee.Name = *in.Name
	}
	if in.EmployeeID != nil {
		employee.EmployeeID = *in.EmployeeID
	}
	if in.Age != nil {
		employee.Age = *in.Age
	}

	if err := s.repo.Update(ctx, employee); err != nil {
		if newPhoto != "" {
			s.removePhoto(ctx, newPhoto)
		}
		return nil, err
	}
	if newPhoto != "" && oldPhoto != "" && oldPhoto != newPhoto {
		s.removePhoto(ctx, oldPhoto)
	}

	s.logger.InfoContext(ctx, "employee updated", "id", employee.ID, "employee_id", employee.EmployeeID)
	s.metrics.RecordEmployeeUpdated(ctx)
	s.publish(ctx, EventUpdated, employee)

	return employee, nil
}

func (s *service) DeleteEmployee(ctx context.Context, id int) error {
	if id <= 0 {
		return ErrEmployeeNotFound
	}
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removePhoto(ctx, employee.Photo)

	s.logger.InfoContext(ctx, "employee deleted", "id", id, "employee_id", employee.EmployeeID)
	s.metrics.RecordEmployeeDeleted(ctx)
	s.publish(ctx, EventDeleted, employee)

	return nil
}

func (s *service) ChartData(ctx context.Context) ([]ChartPoint, error) {
	employees, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]ChartPoint, 0, len(employees))
	for _, e := range employees {
		points = append(points, ChartPoint{Name: e.Name, Age: e.Age})
	}
	s.metrics.RecordChartDataViewed(ctx)
	return points, nil
}

func (s *service) SearchEmployees(ctx context.Context, filter Filter) ([]Employee, error) {
	return s.repo.Search(ctx, filter)
}

func (s *service) ListAges(ctx context.Context) ([]int, error) {
	return s.repo.Ages(ctx)
}

func (s *service) PhotoURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.photos.URL(ctx, key)
}

func (s *service) savePhoto(ctx context.Context, photo *Photo, info *imageInfo) (string, error) {
	key := PhotoDir + uuid.NewString() + info.ext
	if err := s.photos.Save(ctx, key, bytes.NewReader(photo.Data), int64(len(photo.Data)), info.contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) removePhoto(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.photos.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete photo", "key", key, "error", err)
	}
}

func (s *service) publish(ctx context.Context, eventType string, employee *Employee) {
	err := s.publisher.Publish(ctx, employee.EmployeeID, messaging.Event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       employee,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event", "type", eventType, "employee_id", employee.EmployeeID, "error", err)
	}
	s.metrics.RecordEventPublished(ctx, eventType, err)
}
