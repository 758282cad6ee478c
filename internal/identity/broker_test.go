package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/apperr"
)

func newTestBroker(t *testing.T, handler http.HandlerFunc) *Broker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBroker(server.URL, "sk_test_secret", nil, time.Minute, zap.NewNop())
}

func TestGoogleAccessToken(t *testing.T) {
	var gotPath, gotAuth string
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"token":"ya29.test-token"}]`))
	})

	token, err := b.GoogleAccessToken(context.Background(), "user_2abc")
	require.NoError(t, err)
	assert.Equal(t, "ya29.test-token", token)
	assert.Equal(t, "/v1/users/user_2abc/oauth_access_tokens/google", gotPath)
	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
}

func TestGoogleAccessTokenEmptySubject(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("broker must not be called without a subject")
	})

	_, err := b.GoogleAccessToken(context.Background(), "")
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
}

func TestGoogleAccessTokenUpstreamFailure(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	_, err := b.GoogleAccessToken(context.Background(), "user_2abc")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Contains(t, err.Error(), "failed to get OAuth token")
}

func TestGoogleAccessTokenNoGrant(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty list", `[]`},
		{"blank token", `[{"token":""}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := b.GoogleAccessToken(context.Background(), "user_2abc")
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
			assert.Contains(t, err.Error(), "no OAuth access token found")
		})
	}
}

func TestGoogleAccessTokenMalformedResponse(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	})

	_, err := b.GoogleAccessToken(context.Background(), "user_2abc")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
}

func TestGoogleAccessTokenBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := b.GoogleAccessToken(context.Background(), "user_2abc")
		require.Error(t, err)
	}
	seen := calls.Load()

	_, err := b.GoogleAccessToken(context.Background(), "user_2abc")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindUpstream))
	assert.Contains(t, err.Error(), "identity broker unavailable")
	assert.Equal(t, seen, calls.Load(), "open breaker must not reach the broker")
}

func TestGoogleAccessTokenClientErrorsDoNotOpenBreaker(t *testing.T) {
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no grant", http.StatusNotFound)
	})

	for i := 0; i < 10; i++ {
		_, err := b.GoogleAccessToken(context.Background(), "user_2abc")
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "identity broker unavailable")
	}
}

func TestGoogleAccessTokenNoCacheEachCallHitsBroker(t *testing.T) {
	var calls atomic.Int32
	b := newTestBroker(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"token":"ya29.test-token"}]`))
	})

	for i := 0; i < 3; i++ {
		_, err := b.GoogleAccessToken(context.Background(), "user_2abc")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}
