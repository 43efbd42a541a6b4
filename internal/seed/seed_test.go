package seed_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	"io"
	"strings"
	"testing"

	"employee-service/internal/avatar"
	"employee-service/internal/employee"
	"employee-service/internal/logger"
	"employee-service/internal/metrics"
	"employee-service/internal/seed"
	"employee-service/internal/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
)

type failingStorage struct {
	storage.Storage
	failOn string
}

func (s failingStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == s.failOn {
		return errors.New("disk full")
	}
	return s.Storage.Save(ctx, key, r, size, contentType)
}

func TestSeeder_Run(t *testing.T) {
	ctx := context.Background()
	log := logger.NewWithWriter(io.Discard, false)
	renderer := avatar.NewWithFace(basicfont.Face7x13)

	t.Run("ReplacesExistingRecords", func(t *testing.T) {
		repo := employee.NewMemoryRepository()
		photos := storage.NewFilesystemStorage(afero.NewMemMapFs(), "/media/")

		require.NoError(t, photos.Save(ctx, "employee_photos/old.png", strings.NewReader("x"), 1, "image/png"))
		for _, id := range []string{"OLD1", "EMP001"} {
			require.NoError(t, repo.Create(ctx, &employee.Employee{
				Name: "Old " + id, EmployeeID: id, Age: 50, Photo: "employee_photos/old.png",
			}))
		}

		var out bytes.Buffer
		require.NoError(t, seed.New(repo, photos, renderer, &out, log, metrics.NewMock()).Run(ctx))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 10)

		ids := make(map[string]bool)
		for _, e := range all {
			ids[e.EmployeeID] = true
			assert.Equal(t, "employee_photos/"+e.EmployeeID+".jpg", e.Photo)

			rc, err := photos.Open(ctx, e.Photo)
			require.NoError(t, err)
			cfg, format, err := image.DecodeConfig(rc)
			rc.Close()
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, 200, cfg.Width)
		}
		for _, id := range []string{"EMP001", "EMP002", "EMP003", "EMP004", "EMP005", "EMP006", "EMP007", "EMP008", "EMP009", "EMP0010"} {
			assert.True(t, ids[id], "missing %s", id)
		}

		_, err = photos.Open(ctx, "employee_photos/old.png")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 11)
		assert.Equal(t, "Successfully created employee: John Smith", lines[0])
		assert.Equal(t, "Successfully created employee: Rohit Chaudhary", lines[9])
		assert.Equal(t, "Successfully created 10 sample employees with generated images", lines[10])
	})

	t.Run("EmptyStore", func(t *testing.T) {
		repo := employee.NewMemoryRepository()
		photos := storage.NewFilesystemStorage(afero.NewMemMapFs(), "/media/")

		require.NoError(t, seed.New(repo, photos, renderer, io.Discard, log, metrics.NewMock()).Run(ctx))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 10)
	})

	t.Run("Idempotent", func(t *testing.T) {
		repo := employee.NewMemoryRepository()
		photos := storage.NewFilesystemStorage(afero.NewMemMapFs(), "/media/")
		s := seed.New(repo, photos, renderer, io.Discard, log, metrics.NewMock())

		require.NoError(t, s.Run(ctx))
		require.NoError(t, s.Run(ctx))

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 10)

		_, err = photos.Open(ctx, "employee_photos/EMP001.jpg")
		assert.NoError(t, err)
	})

	t.Run("FailureAbortsAndRestores", func(t *testing.T) {
		repo := employee.NewMemoryRepository()
		photos := failingStorage{
			Storage: storage.NewFilesystemStorage(afero.NewMemMapFs(), "/media/"),
			failOn:  "employee_photos/EMP005.jpg",
		}
		require.NoError(t, repo.Create(ctx, &employee.Employee{Name: "Keep Me", EmployeeID: "KEEP", Age: 40, Photo: "p"}))

		err := seed.New(repo, photos, renderer, io.Discard, log, metrics.NewMock()).Run(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EMP005")

		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "KEEP", all[0].EmployeeID)
	})
}
