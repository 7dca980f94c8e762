package hex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Backland-Labs/hexflow/internal/credentials"
	"github.com/Backland-Labs/hexflow/internal/hex/hextest"
	"github.com/Backland-Labs/hexflow/internal/logger"
)

func newTestClient(t *testing.T, domain, token string, opts ...Option) *Client {
	t.Helper()
	creds, err := credentials.New(domain, token)
	require.NoError(t, err)

	opts = append([]Option{WithLogger(logger.NewNop())}, opts...)
	client, err := NewClient(creds, opts...)
	require.NoError(t, err)
	return client
}

func newFakeClient(t *testing.T, opts ...Option) (*Client, *hextest.Server) {
	t.Helper()
	srv := hextest.New(t, "")
	return newTestClient(t, srv.Domain(), srv.Token(), opts...), srv
}
