package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"employee-service/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupMinIO(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping MinIO container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     "minioadmin",
				"MINIO_ROOT_PASSWORD": "minioadmin",
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	return host + ":" + port.Port()
}

func TestMinIOStorage_Integration(t *testing.T) {
	endpoint := setupMinIO(t)
	ctx := context.Background()

	s, err := storage.NewMinIOStorage(endpoint, "minioadmin", "minioadmin", "employee-photos", false, time.Minute)
	require.NoError(t, err)

	// bucket creation is idempotent
	_, err = storage.NewMinIOStorage(endpoint, "minioadmin", "minioadmin", "employee-photos", false, time.Minute)
	require.NoError(t, err)

	data := []byte("jpeg bytes")
	key := "employee_photos/EMP001.jpg"
	require.NoError(t, s.Save(ctx, key, bytes.NewReader(data), int64(len(data)), "image/jpeg"))

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, data, got)

	url, err := s.URL(ctx, key)
	require.NoError(t, err)
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, data, body)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Open(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Save(ctx, "../escape", bytes.NewReader(nil), 0, ""), storage.ErrInvalidKey)
}
