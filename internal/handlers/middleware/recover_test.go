package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type errorLoggerFunc func(msg string, args ...any)

func (f errorLoggerFunc) Error(msg string, args ...any) { f(msg, args...) }

func TestRecoverMiddleware(t *testing.T) {
	var logged []string
	l := errorLoggerFunc(func(msg string, args ...any) {
		logged = append(logged, msg)
	})

	t.Run("panic becomes 500", func(t *testing.T) {
		logged = nil
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})
		srv := httptest.NewServer(RecoverMiddleware(l)(h))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		require.JSONEq(t, `{"error": "service_error", "message": "Internal server error"}`, string(body))
		require.Equal(t, []string{"panic recovered"}, logged)
	})

	t.Run("no panic untouched", func(t *testing.T) {
		logged = nil
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		srv := httptest.NewServer(RecoverMiddleware(l)(h))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		require.Empty(t, logged)
	})
}
