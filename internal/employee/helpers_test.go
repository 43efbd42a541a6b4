package employee_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"

	"employee-service/internal/employee"
	"employee-service/internal/logger"
	"employee-service/internal/messaging"
	"employee-service/internal/metrics"
	"employee-service/internal/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
	keys   []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	repo      *employee.MemoryRepository
	fs        afero.Fs
	photos    *storage.FilesystemStorage
	publisher *recordingPublisher
	service   employee.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fs := afero.NewMemMapFs()
	f := &fixture{
		repo:      employee.NewMemoryRepository(),
		fs:        fs,
		photos:    storage.NewFilesystemStorage(fs, "/media/"),
		publisher: &recordingPublisher{},
	}
	f.service = employee.NewService(f.repo, f.photos, f.publisher, logger.NewWithWriter(io.Discard, false), metrics.NewMock())
	return f
}

// storedPhotos lists every object key under the photo directory.
func (f *fixture) storedPhotos(t *testing.T) []string {
	t.Helper()

	var keys []string
	entries, err := afero.ReadDir(f.fs, "employee_photos")
	if err != nil {
		return nil
	}
	for _, e := range entries {
		keys = append(keys, "employee_photos/"+e.Name())
	}
	return keys
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 73, G: 109, B: 137, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func validInput(t *testing.T, name, employeeID string, age int) employee.Input {
	t.Helper()
	return employee.Input{
		Name:       strPtr(name),
		EmployeeID: strPtr(employeeID),
		Age:        intPtr(age),
		Photo:      &employee.Photo{Filename: "photo.png", Data: pngBytes(t)},
	}
}
