// Package testnats provides a NATS server container for publisher tests.
package testnats

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	natsImage = "nats:2.10-alpine"
	natsPort  = "4222/tcp"
)

type NATSContainer struct {
	Container testcontainers.Container
	URL       string
}

var (
	shared    *NATSContainer
	sharedErr error
	startOnce sync.Once
)

// SetupSharedNATS starts one server per test binary.
func SetupSharedNATS(t *testing.T) *NATSContainer {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping NATS container test in short mode")
	}

	startOnce.Do(func() {
		shared, sharedErr = startNATS(context.Background())
	})
	require.NoError(t, sharedErr, "nats container failed to start")
	return shared
}

func startNATS(ctx context.Context) (*NATSContainer, error) {
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        natsImage,
			ExposedPorts: []string{natsPort},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(natsPort),
				wait.ForLog("Server is ready"),
			),
		},
		Started: true,
	})
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, err
	}

	endpoint, err := ctr.PortEndpoint(ctx, natsPort, "nats")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, fmt.Errorf("nats endpoint: %w", err)
	}
	return &NATSContainer{Container: ctr, URL: endpoint}, nil
}

func (nc *NATSContainer) Cleanup(t *testing.T) {
	t.Helper()

	if err := testcontainers.TerminateContainer(nc.Container); err != nil {
		t.Logf("failed to terminate container: %s", err)
	}
}

// Connect opens a client connection that is closed when t finishes.
func (nc *NATSContainer) Connect(t *testing.T) *nats.Conn {
	t.Helper()

	conn, err := nats.Connect(nc.URL, nats.Timeout(5*time.Second))
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}
