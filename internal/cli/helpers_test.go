package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Backland-Labs/hexflow/internal/config"
	"github.com/Backland-Labs/hexflow/internal/hex/hextest"
	"github.com/Backland-Labs/hexflow/internal/output"
)

type MockConfigLoader struct {
	mock.Mock
}

func (m *MockConfigLoader) Load() (*config.Config, error) {
	args := m.Called()
	cfg, _ := args.Get(0).(*config.Config)
	return cfg, args.Error(1)
}

type testCLI struct {
	deps   *Dependencies
	srv    *hextest.Server
	cfg    *config.Config
	stdout *bytes.Buffer
	stderr *bytes.Buffer

	mu     sync.Mutex
	sleeps []time.Duration
}

// newTestCLI wires the commands to a fake Hex API. env is layered over a
// configuration pointing at the fake server.
func newTestCLI(t *testing.T, env map[string]string) *testCLI {
	t.Helper()
	srv := hextest.New(t, "")

	vars := map[string]string{
		"HEX_DOMAIN":           srv.Domain(),
		"HEX_TOKEN":            srv.Token(),
		"HEX_CREDENTIALS_FILE": filepath.Join(t.TempDir(), "credentials.yaml"),
	}
	for k, v := range env {
		vars[k] = v
	}
	cfg, err := config.Load(context.Background(), envconfig.MapLookuper(vars))
	require.NoError(t, err)

	loader := &MockConfigLoader{}
	loader.On("Load").Return(cfg, nil)

	tc := &testCLI{
		srv:    srv,
		cfg:    cfg,
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	tc.deps = &Dependencies{
		ConfigLoader: loader,
		NewClient:    NewRealClient,
		Sleep: func(ctx context.Context, d time.Duration) error {
			tc.mu.Lock()
			tc.sleeps = append(tc.sleeps, d)
			tc.mu.Unlock()
			return ctx.Err()
		},
		Printer: output.NewPrinterWithWriters(tc.stdout, tc.stderr, false),
	}
	return tc
}

func (tc *testCLI) run(args ...string) error {
	tc.stdout.Reset()
	tc.stderr.Reset()

	cmd := NewRootCommandWithDependencies(tc.deps)
	cmd.SetOut(tc.stdout)
	cmd.SetErr(tc.stderr)
	cmd.SetArgs(args)
	return cmd.Execute()
}
