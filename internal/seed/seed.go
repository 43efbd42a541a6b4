// Package seed resets the employee store to a fixed set of sample records,
// each with a generated initials avatar.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"

	"employee-service/internal/avatar"
	"employee-service/internal/employee"
	"employee-service/internal/metrics"
	"employee-service/internal/storage"
)

type Record struct {
	Name       string
	EmployeeID string
	Age        int
	Color      color.RGBA
}

var (
	slate  = color.RGBA{R: 73, G: 109, B: 137, A: 255}
	green  = color.RGBA{R: 67, G: 170, B: 139, A: 255}
	purple = color.RGBA{R: 114, G: 82, B: 161, A: 255}
	brown  = color.RGBA{R: 150, G: 111, B: 51, A: 255}
	blue   = color.RGBA{R: 65, G: 131, B: 215, A: 255}
	red    = color.RGBA{R: 203, G: 67, B: 53, A: 255}
)

// Employees is the sample data set. EMP0010 is intentionally not EMP010.
var Employees = []Record{
	{Name: "John Smith", EmployeeID: "EMP001", Age: 28, Color: slate},
	{Name: "Sarah Johnson", EmployeeID: "EMP002", Age: 32, Color: green},
	{Name: "Michael Brown", EmployeeID: "EMP003", Age: 29, Color: purple},
	{Name: "Emily Davis", EmployeeID: "EMP004", Age: 26, Color: brown},
	{Name: "David Wilson", EmployeeID: "EMP005", Age: 35, Color: blue},
	{Name: "Lisa Anderson", EmployeeID: "EMP006", Age: 31, Color: red},
	{Name: "Shadwal Sinha", EmployeeID: "EMP007", Age: 25, Color: red},
	{Name: "Harsh Mittal", EmployeeID: "EMP008", Age: 23, Color: blue},
	{Name: "Satyam Tiwari", EmployeeID: "EMP009", Age: 26, Color: red},
	{Name: "Rohit Chaudhary", EmployeeID: "EMP0010", Age: 27, Color: blue},
}

type Seeder struct {
	repo     employee.Repository
	photos   storage.Storage
	renderer *avatar.Renderer
	out      io.Writer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	records  []Record
}

func New(repo employee.Repository, photos storage.Storage, renderer *avatar.Renderer, out io.Writer, logger *slog.Logger, m *metrics.Metrics) *Seeder {
	return &Seeder{
		repo:     repo,
		photos:   photos,
		renderer: renderer,
		out:      out,
		logger:   logger,
		metrics:  m,
		records:  Employees,
	}
}

// Run deletes every employee and inserts the sample records in one
// transaction. The first error aborts the run.
func (s *Seeder) Run(ctx context.Context) (err error) {
	defer func() { s.metrics.RecordSeedRun(ctx, err) }()

	previous, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list existing employees: %w", err)
	}

	written := make(map[string]struct{}, len(s.records))
	err = s.repo.RunInTx(ctx, func(ctx context.Context, repo employee.Repository) error {
		removed, err := repo.DeleteAll(ctx)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "existing employees removed", "count", removed)

		for _, rec := range s.records {
			key, err := s.writePhoto(ctx, rec)
			if err != nil {
				return err
			}
			written[key] = struct{}{}

			e := &employee.Employee{
				Name:       rec.Name,
				EmployeeID: rec.EmployeeID,
				Photo:      key,
				Age:        rec.Age,
			}
			if err := repo.Create(ctx, e); err != nil {
				return fmt.Errorf("create %s: %w", rec.EmployeeID, err)
			}
			fmt.Fprintf(s.out, "Successfully created employee: %s\n", rec.Name)
		}
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "seed failed", "error", err)
		return err
	}

	for _, e := range previous {
		if _, ok := written[e.Photo]; ok || e.Photo == "" {
			continue
		}
		if derr := s.photos.Delete(ctx, e.Photo); derr != nil {
			s.logger.WarnContext(ctx, "failed to delete stale photo", "key", e.Photo, "error", derr)
		}
	}

	fmt.Fprintf(s.out, "Successfully created %d sample employees with generated images\n", len(s.records))
	return nil
}

func (s *Seeder) writePhoto(ctx context.Context, rec Record) (string, error) {
	img := s.renderer.Render(avatar.Initials(rec.Name), rec.Color)

	var buf bytes.Buffer
	if err := avatar.EncodeJPEG(&buf, img); err != nil {
		return "", fmt.Errorf("encode photo for %s: %w", rec.EmployeeID, err)
	}

	key := employee.PhotoDir + rec.EmployeeID + ".jpg"
	if err := s.photos.Save(ctx, key, &buf, int64(buf.Len()), "image/jpeg"); err != nil {
		return "", fmt.Errorf("store photo for %s: %w", rec.EmployeeID, err)
	}
	return key, nil
}
