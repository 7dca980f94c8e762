package credentials

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		domain     string
		token      string
		wantDomain string
		wantErr    error
	}{
		{
			name:       "explicit domain",
			domain:     "acme.hex.tech",
			token:      "token_value",
			wantDomain: "acme.hex.tech",
		},
		{
			name:       "default domain",
			domain:     "",
			token:      "token_value",
			wantDomain: DefaultDomain,
		},
		{
			name:    "missing token",
			domain:  "acme.hex.tech",
			token:   "  ",
			wantErr: ErrMissingToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := New(tt.domain, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, creds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDomain, creds.Domain())
			assert.Equal(t, DefaultTimeout, creds.Timeout())
		})
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"app.hex.tech", "https://app.hex.tech/api/v1"},
		{"domain", "https://domain/api/v1"},
		{"https://acme.hex.tech/", "https://acme.hex.tech/api/v1"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080/api/v1"},
		{"https://acme.hex.tech/api/v1", "https://acme.hex.tech/api/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			creds, err := New(tt.domain, "token")
			require.NoError(t, err)
			assert.Equal(t, tt.want, creds.BaseURL())
		})
	}
}

func TestSecretIsMasked(t *testing.T) {
	creds, err := New("domain", "token_value", WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, creds.Timeout())

	formatted := []string{
		fmt.Sprintf("%v", creds),
		fmt.Sprintf("%s", creds.Token()),
		fmt.Sprintf("%#v", creds.Token()),
	}
	for _, s := range formatted {
		assert.NotContains(t, s, "token_value")
	}

	encoded, err := json.Marshal(map[string]any{"token": creds.Token()})
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "token_value")
	assert.Contains(t, string(encoded), masked)

	assert.Equal(t, "token_value", creds.Token().Value())
	assert.Equal(t, "", Secret("").String())
}

func TestOpenSessionSendsBearerToken(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	creds, err := New(server.URL, "token_value")
	require.NoError(t, err)

	session := creds.Open()
	defer session.Close()

	assert.Equal(t, server.URL+"/api/v1", session.BaseURL)
	assert.Equal(t, DefaultTimeout, session.Timeout)

	resp, err := session.Get(session.BaseURL + "/project/123/runs")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer token_value", gotAuth)
	assert.Equal(t, "/api/v1/project/123/runs", gotPath)
}

func TestOpenReturnsIndependentSessions(t *testing.T) {
	creds, err := New("domain", "token")
	require.NoError(t, err)

	first := creds.Open()
	second := creds.Open()
	defer first.Close()
	defer second.Close()

	assert.NotSame(t, first.Client, second.Client)
	assert.NotSame(t, first.transport, second.transport)
}
