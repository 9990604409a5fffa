package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/melih/lighthouse-relay/internal/core/domain"
)

type frame struct {
	stream stdcopy.StdType
	data   string
}

type mockDocker struct {
	pullBody string
	pullErr  error

	createErr error
	startErr  error
	logsErr   error
	removeErr error
	logs      []byte

	config  *container.Config
	started string
	removed string
}

func (m *mockDocker) ImagePull(_ context.Context, _ string, _ image.PullOptions) (io.ReadCloser, error) {
	if m.pullErr != nil {
		return nil, m.pullErr
	}
	return io.NopCloser(strings.NewReader(m.pullBody)), nil
}

func (m *mockDocker) ContainerCreate(_ context.Context, config *container.Config, _ *container.HostConfig, _ *network.NetworkingConfig, _ *ocispec.Platform, _ string) (container.CreateResponse, error) {
	if m.createErr != nil {
		return container.CreateResponse{}, m.createErr
	}
	m.config = config
	return container.CreateResponse{ID: "abc123"}, nil
}

func (m *mockDocker) ContainerStart(_ context.Context, id string, _ container.StartOptions) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = id
	return nil
}

func (m *mockDocker) ContainerLogs(_ context.Context, _ string, _ container.LogsOptions) (io.ReadCloser, error) {
	if m.logsErr != nil {
		return nil, m.logsErr
	}
	return io.NopCloser(bytes.NewReader(m.logs)), nil
}

func (m *mockDocker) ContainerRemove(_ context.Context, id string, _ container.RemoveOptions) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = id
	return nil
}

func (m *mockDocker) Close() error { return nil }

// multiplexed builds a log stream the way dockerd frames non-TTY output.
func multiplexed(t *testing.T, frames ...frame) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		_, err := stdcopy.NewStdWriter(&buf, f.stream).Write([]byte(f.data))
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func drain(t *testing.T, s domain.LineStream) []string {
	t.Helper()
	var lines []string
	for s.Next() {
		lines = append(lines, s.Line())
	}
	require.NoError(t, s.Err())
	return lines
}

func TestPullImageSucceeds(t *testing.T) {
	m := &mockDocker{pullBody: `{"status":"Pulling from library/alpine","id":"3.20"}` + "\n" +
		`{"status":"Status: Downloaded newer image for alpine:3.20"}` + "\n"}
	a := newAdapter(m, zap.NewNop())

	require.NoError(t, a.PullImage(context.Background(), "alpine:3.20"))
}

func TestPullImageNotFoundIsUserInput(t *testing.T) {
	m := &mockDocker{pullErr: errdefs.NotFound(errors.New("pull access denied for nope, repository does not exist"))}
	a := newAdapter(m, zap.NewNop())

	err := a.PullImage(context.Background(), "nope")
	require.True(t, domain.IsUserInput(err))
	require.Equal(t, `image "nope" not found`, err.Error())
}

func TestPullImageStreamErrorIsUserInput(t *testing.T) {
	m := &mockDocker{pullBody: `{"errorDetail":{"message":"manifest for alpine:0.0 not found: manifest unknown: manifest unknown"},"error":"manifest for alpine:0.0 not found: manifest unknown: manifest unknown"}` + "\n"}
	a := newAdapter(m, zap.NewNop())

	err := a.PullImage(context.Background(), "alpine:0.0")
	require.True(t, domain.IsUserInput(err))
}

func TestPullImageDaemonFailureIsBackend(t *testing.T) {
	m := &mockDocker{pullErr: errors.New("Cannot connect to the Docker daemon at unix:///var/run/docker.sock")}
	a := newAdapter(m, zap.NewNop())

	err := a.PullImage(context.Background(), "alpine:3.20")
	require.True(t, domain.IsBackend(err))
	require.Equal(t, dockerHostMessage, err.Error())
}

func TestRunContainerStreamsCombinedOutput(t *testing.T) {
	m := &mockDocker{logs: multiplexed(t,
		frame{stdcopy.Stdout, "one\ntw"},
		frame{stdcopy.Stdout, "o\n"},
		frame{stdcopy.Stderr, "oops\n"},
		frame{stdcopy.Stdout, "last without newline"},
	)}
	a := newAdapter(m, zap.NewNop())

	handle, err := a.RunContainer(context.Background(), domain.RunSpec{
		Image:   "alpine:3.20",
		Command: []string{"/bin/sh", "-c", "echo one"},
	})
	require.NoError(t, err)
	defer handle.Output.Close()

	assert.Equal(t, "abc123", handle.ID)
	assert.Equal(t, "abc123", m.started)
	assert.Equal(t, "alpine:3.20", m.config.Image)
	assert.Equal(t, []string{"/bin/sh", "-c", "echo one"}, []string(m.config.Cmd))

	require.Equal(t, []string{"one", "two", "oops", "last without newline"}, drain(t, handle.Output))
}

func TestRunContainerAutoRemoveOnClose(t *testing.T) {
	m := &mockDocker{logs: multiplexed(t, frame{stdcopy.Stdout, "hi\n"})}
	a := newAdapter(m, zap.NewNop())

	handle, err := a.RunContainer(context.Background(), domain.RunSpec{Image: "alpine", AutoRemove: true})
	require.NoError(t, err)
	drain(t, handle.Output)
	require.Empty(t, m.removed)

	require.NoError(t, handle.Output.Close())
	require.Equal(t, "abc123", m.removed)
	require.NoError(t, handle.Output.Close())
}

func TestRunContainerStartFailureIsBackend(t *testing.T) {
	m := &mockDocker{startErr: errors.New("OCI runtime create failed")}
	a := newAdapter(m, zap.NewNop())

	_, err := a.RunContainer(context.Background(), domain.RunSpec{Image: "alpine"})
	require.True(t, domain.IsBackend(err))
}

func TestRunContainerFailureRemovesCreatedContainer(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockDocker
		autoRemove bool
		removed    string
	}{
		{"start fails", &mockDocker{startErr: errors.New("OCI runtime create failed")}, true, "abc123"},
		{"logs fail", &mockDocker{logsErr: errors.New("configured logging driver does not support reading")}, true, "abc123"},
		{"start fails without rm", &mockDocker{startErr: errors.New("OCI runtime create failed")}, false, ""},
		{"logs fail without rm", &mockDocker{logsErr: errors.New("configured logging driver does not support reading")}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(tt.mock, zap.NewNop())

			handle, err := a.RunContainer(context.Background(), domain.RunSpec{Image: "alpine", AutoRemove: tt.autoRemove})
			require.Nil(t, handle)
			require.True(t, domain.IsBackend(err))
			require.Equal(t, tt.removed, tt.mock.removed)
		})
	}
}

func TestRunContainerLogsFailureIsBackend(t *testing.T) {
	m := &mockDocker{logsErr: errors.New("Error response from daemon: i/o timeout")}
	a := newAdapter(m, zap.NewNop())

	_, err := a.RunContainer(context.Background(), domain.RunSpec{Image: "alpine"})
	require.True(t, domain.IsBackend(err))
	require.Equal(t, dockerHostMessage, err.Error())
	require.Equal(t, "abc123", m.started)
}

func TestLineStreamCorruptFrameIsBackend(t *testing.T) {
	// A frame header announcing an unknown stream type.
	bad := []byte{9, 0, 0, 0, 0, 0, 0, 3, 'a', 'b', 'c'}
	s := newLineStream(io.NopCloser(bytes.NewReader(bad)), nil)
	defer s.Close()

	require.False(t, s.Next())
	require.True(t, domain.IsBackend(s.Err()))
}
