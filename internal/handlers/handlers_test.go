package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/postgram/internal/logger"
	"github.com/nkiryanov/postgram/internal/service/auth"
	"github.com/nkiryanov/postgram/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/postgram/internal/service/user"
	"github.com/nkiryanov/postgram/internal/testutil"
)

const testSecret = "test-secret-key"

type testClient struct {
	t   *testing.T
	url string
}

func newTestClient(t *testing.T, secret string, accessTTL time.Duration, refreshTTL time.Duration) testClient {
	t.Helper()

	storage := testutil.NewBoltStorage(t)

	tokens, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	})
	require.NoError(t, err)

	userService := user.NewService(auth.DefaultHasher, storage)
	authService := auth.NewService(auth.Config{}, tokens, userService)

	srv := httptest.NewServer(NewRouter(authService, userService, logger.NewNoOpLogger()))
	t.Cleanup(srv.Close)

	return testClient{t: t, url: srv.URL}
}

// Make request and return status code with body
// Body encoded as JSON unless it is a string
func (c testClient) do(method string, path string, body any, access string) (int, string) {
	c.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(c.t.Context(), method, c.url+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err, "should make request to test server")
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err, "should read response body")

	return resp.StatusCode, string(respBody)
}

type session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	UserID       uuid.UUID `json:"userId"`
}

type profile struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
}

func decode[T any](t *testing.T, body string) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v), "body: %s", body)
	return v
}

func (c testClient) register(email string, password string) profile {
	c.t.Helper()

	status, body := c.do(http.MethodPost, "/auth/register", map[string]string{"email": email, "password": password}, "")
	require.Equalf(c.t, http.StatusCreated, status, "body: %s", body)
	return decode[profile](c.t, body)
}

func (c testClient) login(email string, password string) session {
	c.t.Helper()

	status, body := c.do(http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equalf(c.t, http.StatusOK, status, "body: %s", body)
	return decode[session](c.t, body)
}

func Test_EndToEnd(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testSecret, 15*time.Minute, 24*time.Hour)

	registered := c.register("a@b.com", "pw")
	assert.Equal(t, "a@b.com", registered.Email)

	s := c.login("a@b.com", "pw")
	require.NotEmpty(t, s.AccessToken)
	require.NotEmpty(t, s.RefreshToken)
	require.Equal(t, registered.ID, s.UserID)

	status, body := c.do(http.MethodGet, "/users/me", nil, s.AccessToken)
	require.Equalf(t, http.StatusOK, status, "body: %s", body)
	require.Equal(t, registered.ID, decode[profile](t, body).ID)

	status, body = c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": s.RefreshToken}, "")
	require.Equalf(t, http.StatusOK, status, "body: %s", body)
	refreshed := decode[session](t, body)
	require.NotEqual(t, s.RefreshToken, refreshed.RefreshToken)
	require.NotEqual(t, s.AccessToken, refreshed.AccessToken)
	require.Equal(t, s.UserID, refreshed.UserID)

	status, body = c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": s.RefreshToken}, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.JSONEq(t, `{"error": "service_error", "message": "Refresh token expired, please log in again"}`, body)

	status, _ = c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refreshed.RefreshToken}, "")
	require.Equal(t, http.StatusOK, status, "token from the first refresh has to keep working")
}

func Test_Register(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testSecret, 0, 0)

	t.Run("created without private fields", func(t *testing.T) {
		status, body := c.do(http.MethodPost, "/auth/register", map[string]string{"email": "bob@example.com", "password": "pwd"}, "")

		require.Equal(t, http.StatusCreated, status)
		var raw map[string]any
		require.NoError(t, json.Unmarshal([]byte(body), &raw))
		require.Equal(t, "bob", raw["username"], "username derived from email")
		require.NotContains(t, raw, "password")
		require.NotContains(t, raw, "passwordHash")
		require.NotContains(t, raw, "refreshTokens")
	})

	t.Run("custom username", func(t *testing.T) {
		status, body := c.do(http.MethodPost, "/auth/register", map[string]string{"email": "alice@example.com", "password": "pwd", "username": "alice_w"}, "")

		require.Equal(t, http.StatusCreated, status)
		require.Equal(t, "alice_w", decode[profile](t, body).Username)
	})

	t.Run("same email twice", func(t *testing.T) {
		c.register("twice@example.com", "pwd")

		status, body := c.do(http.MethodPost, "/auth/register", map[string]string{"email": "twice@example.com", "password": "other", "username": "another"}, "")

		require.Equal(t, http.StatusBadRequest, status)
		require.JSONEq(t, `{"error": "service_error", "message": "Can't register user with these credentials"}`, body)
	})

	t.Run("validation failed", func(t *testing.T) {
		status, body := c.do(http.MethodPost, "/auth/register", map[string]string{"email": "not-email"}, "")

		require.Equal(t, http.StatusBadRequest, status)
		require.JSONEq(t, `{
			"error": "validation_failed",
			"message": "Request validation failed",
			"fields": {
				"email": "Invalid email address",
				"password": "This field is required"
			}
		}`, body)
	})

	t.Run("broken json", func(t *testing.T) {
		status, body := c.do(http.MethodPost, "/auth/register", "{not json", "")

		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, body, "decoding_failed")
	})
}

func Test_Login(t *testing.T) {
	t.Parallel()

	t.Run("wrong password or unknown email", func(t *testing.T) {
		c := newTestClient(t, testSecret, 0, 0)
		c.register("bob@example.com", "pwd")

		for _, creds := range []map[string]string{
			{"email": "bob@example.com", "password": "wrong"},
			{"email": "nobody@example.com", "password": "pwd"},
		} {
			status, body := c.do(http.MethodPost, "/auth/login", creds, "")

			require.Equal(t, http.StatusBadRequest, status)
			require.JSONEq(t, `{"error": "service_error", "message": "wrong username or password"}`, body)
		}
	})

	t.Run("fresh pair every login", func(t *testing.T) {
		c := newTestClient(t, testSecret, 0, 0)
		c.register("bob@example.com", "pwd")

		first := c.login("bob@example.com", "pwd")
		second := c.login("bob@example.com", "pwd")

		require.NotEqual(t, first.AccessToken, second.AccessToken)
		require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	})

	t.Run("secret not configured", func(t *testing.T) {
		c := newTestClient(t, "", 0, 0)
		c.register("bob@example.com", "pwd")

		status, body := c.do(http.MethodPost, "/auth/login", map[string]string{"email": "bob@example.com", "password": "pwd"}, "")

		require.Equal(t, http.StatusInternalServerError, status)
		require.JSONEq(t, `{"error": "service_error", "message": "Internal server error"}`, body)
	})
}

func Test_Refresh(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testSecret, 0, 0)

	t.Run("empty token", func(t *testing.T) {
		status, body := c.do(http.MethodPost, "/auth/refresh", map[string]string{}, "")

		require.Equal(t, http.StatusBadRequest, status)
		require.JSONEq(t, `{"error": "service_error", "message": "fail"}`, body)
	})

	t.Run("garbage token", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": "garbage"}, "")

		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("token of unknown user", func(t *testing.T) {
		tokens, err := tokenmanager.New(tokenmanager.Config{SecretKey: testSecret})
		require.NoError(t, err)
		pair, err := tokens.IssuePair(uuid.New())
		require.NoError(t, err)

		status, body := c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": pair.Refresh.Value}, "")

		require.Equal(t, http.StatusUnauthorized, status)
		require.JSONEq(t, `{"error": "service_error", "message": "Invalid refresh token"}`, body)
	})

	t.Run("refresh after logout fail", func(t *testing.T) {
		c.register("logout@example.com", "pwd")
		s := c.login("logout@example.com", "pwd")

		status, body := c.do(http.MethodPost, "/auth/logout", map[string]string{"refreshToken": s.RefreshToken}, "")
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `{"message": "Logged out successfully"}`, body)

		status, _ = c.do(http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": s.RefreshToken}, "")
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func Test_Logout(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testSecret, 0, 0)

	for _, token := range []string{"", "garbage"} {
		status, body := c.do(http.MethodPost, "/auth/logout", map[string]string{"refreshToken": token}, "")

		require.Equal(t, http.StatusOK, status, "logout with unusable token %q still ok", token)
		require.JSONEq(t, `{"message": "Logged out successfully"}`, body)
	}
}

func Test_AccessGate(t *testing.T) {
	t.Parallel()

	t.Run("no or malformed credentials", func(t *testing.T) {
		c := newTestClient(t, testSecret, 0, 0)

		status, body := c.do(http.MethodGet, "/users/me", nil, "")
		require.Equal(t, http.StatusUnauthorized, status)
		require.JSONEq(t, `{"error": "service_error", "message": "Access Denied"}`, body)

		status, _ = c.do(http.MethodGet, "/users/me", nil, "not-a-token")
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("access token expired", func(t *testing.T) {
		c := newTestClient(t, testSecret, time.Second, time.Minute)
		c.register("bob@example.com", "pwd")
		s := c.login("bob@example.com", "pwd")

		status, _ := c.do(http.MethodGet, "/users/me", nil, s.AccessToken)
		require.Equal(t, http.StatusOK, status)

		// Wait for the token to expire
		time.Sleep(time.Second)

		status, _ = c.do(http.MethodGet, "/users/me", nil, s.AccessToken)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("access token works until expiry after logout", func(t *testing.T) {
		c := newTestClient(t, testSecret, 0, 0)
		c.register("bob@example.com", "pwd")
		s := c.login("bob@example.com", "pwd")

		status, _ := c.do(http.MethodPost, "/auth/logout", map[string]string{"refreshToken": s.RefreshToken}, "")
		require.Equal(t, http.StatusOK, status)

		status, _ = c.do(http.MethodGet, "/users/me", nil, s.AccessToken)
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("secret not configured", func(t *testing.T) {
		c := newTestClient(t, "", 0, 0)

		status, body := c.do(http.MethodGet, "/users/me", nil, "any-token")

		require.Equal(t, http.StatusInternalServerError, status)
		require.JSONEq(t, `{"error": "service_error", "message": "Internal server error"}`, body)
	})
}

func Test_Users(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testSecret, 0, 0)
	alice := c.register("alice@example.com", "pwd")
	bob := c.register("bob@example.com", "pwd")
	s := c.login("bob@example.com", "pwd")

	t.Run("get other user profile", func(t *testing.T) {
		status, body := c.do(http.MethodGet, "/users/"+alice.ID.String(), nil, s.AccessToken)

		require.Equal(t, http.StatusOK, status)
		got := decode[profile](t, body)
		require.Equal(t, alice.ID, got.ID)
		require.Equal(t, "alice", got.Username)
	})

	t.Run("get unknown user", func(t *testing.T) {
		status, _ := c.do(http.MethodGet, "/users/"+uuid.NewString(), nil, s.AccessToken)

		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("get invalid id", func(t *testing.T) {
		status, _ := c.do(http.MethodGet, "/users/42", nil, s.AccessToken)

		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("update own profile", func(t *testing.T) {
		status, body := c.do(http.MethodPut, "/users/"+bob.ID.String(),
			map[string]string{"username": "robert", "profilePicture": "https://example.com/bob.png"}, s.AccessToken)

		require.Equalf(t, http.StatusOK, status, "body: %s", body)
		got := decode[profile](t, body)
		require.Equal(t, "robert", got.Username)
		require.Equal(t, "https://example.com/bob.png", got.ProfilePicture)
		require.Equal(t, "bob@example.com", got.Email)
	})

	t.Run("update other user forbidden", func(t *testing.T) {
		status, body := c.do(http.MethodPut, "/users/"+alice.ID.String(), map[string]string{"username": "hacked"}, s.AccessToken)

		require.Equal(t, http.StatusForbidden, status)
		require.JSONEq(t, `{"error": "service_error", "message": "Operation not allowed"}`, body)
	})

	t.Run("update to taken username", func(t *testing.T) {
		status, body := c.do(http.MethodPut, "/users/"+bob.ID.String(), map[string]string{"username": "alice"}, s.AccessToken)

		require.Equal(t, http.StatusBadRequest, status)
		require.JSONEq(t, `{"error": "service_error", "message": "Username already taken"}`, body)
	})

	t.Run("update with invalid username", func(t *testing.T) {
		status, body := c.do(http.MethodPut, "/users/"+bob.ID.String(), map[string]string{"username": "with space"}, s.AccessToken)

		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, body, "validation_failed")
	})

	t.Run("update without token", func(t *testing.T) {
		status, _ := c.do(http.MethodPut, "/users/"+bob.ID.String(), map[string]string{"username": "nobody"}, "")

		require.Equal(t, http.StatusUnauthorized, status)
	})
}
