package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/dom/study-buddy/internal/api/handlers"
	"github.com/dom/study-buddy/internal/config"
	"github.com/dom/study-buddy/internal/domain"
	"github.com/dom/study-buddy/internal/repository"
	"github.com/dom/study-buddy/internal/repository/memory"
	"github.com/dom/study-buddy/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		request        map[string]string
		setup          func(t *testing.T, ts *testutil.TestServer)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "successful registration",
			request: map[string]string{
				"username": "newuser",
				"email":    "newuser@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing email",
			request: map[string]string{
				"username": "newuser",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "All fields are required",
		},
		{
			name: "short username",
			request: map[string]string{
				"username": "ab",
				"email":    "ab@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Username must be at least 3 characters",
		},
		{
			name: "short password",
			request: map[string]string{
				"username": "newuser",
				"email":    "newuser@example.com",
				"password": "12345",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Password must be at least 6 characters",
		},
		{
			name: "duplicate username",
			request: map[string]string{
				"username": "existinguser",
				"email":    "fresh@example.com",
				"password": "password123",
			},
			setup: func(t *testing.T, ts *testutil.TestServer) {
				testutil.NewUserBuilder().
					WithUsername("existinguser").
					Build(t, ts.Repos.User)
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Username or email already exists",
		},
		{
			name:           "empty request body",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "All fields are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testutil.NewTestServer(t)
			if tt.setup != nil {
				tt.setup(t, ts)
			}

			resp := testutil.PostJSON(t, ts.URL("/auth/register"), tt.request, "")

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var result handlers.RegisterResponse
			testutil.AssertJSONResponse(t, resp, &result)
			assert.Equal(t, "User registered successfully!", result.Message)
			assert.NotEmpty(t, result.UserID)
		})
	}
}

func TestAuthHandler_RegisterMalformedBody(t *testing.T) {
	ts := testutil.NewTestServer(t)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.URL("/auth/register"), nil, "")
	resp := testutil.Do(t, req)

	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_Login(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, password := testutil.NewUserBuilder().
		WithUsername("loginuser").
		WithPassword("correctpassword").
		Build(t, ts.Repos.User)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "successful login",
			request:        map[string]string{"username": "loginuser", "password": password},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			request:        map[string]string{"username": "loginuser", "password": "wrongpassword"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid username or password",
		},
		{
			name:           "nonexistent user",
			request:        map[string]string{"username": "nonexistent", "password": "password123"},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid username or password",
		},
		{
			name:           "missing password",
			request:        map[string]string{"username": "loginuser"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Username and password are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := testutil.PostJSON(t, ts.URL("/auth/login"), tt.request, "")

			if tt.expectedError != "" {
				testutil.AssertErrorResponse(t, resp, tt.expectedStatus, tt.expectedError)
				return
			}

			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			var result testutil.LoginResponse
			testutil.AssertJSONResponse(t, resp, &result)
			assert.Equal(t, "Login successful!", result.Message)
			assert.Equal(t, user.ID.String(), result.User.UserID)
			assert.Equal(t, "loginuser", result.User.Username)
			assert.Equal(t, "loginuser@example.com", result.User.Email)
			assert.NotEmpty(t, result.User.SessionToken)
		})
	}
}

func TestAuthHandler_ProfileAndLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().WithUsername("profileuser").BuildAndAuthenticate(t, ts)

	resp := testutil.Get(t, ts.URL("/auth/profile"), token)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var profile handlers.UserResponse
	testutil.AssertJSONResponse(t, resp, &profile)
	assert.Equal(t, user.ID.String(), profile.UserID)
	assert.Equal(t, "profileuser", profile.Username)
	assert.Empty(t, profile.SessionToken)

	resp = testutil.PostJSON(t, ts.URL("/auth/logout"), nil, token)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var msg handlers.MessageResponse
	testutil.AssertJSONResponse(t, resp, &msg)
	assert.Equal(t, "Logout successful!", msg.Message)

	resp = testutil.Get(t, ts.URL("/auth/profile"), token)
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Invalid or expired session")

	// logging out again, or without any token, still succeeds
	resp = testutil.PostJSON(t, ts.URL("/auth/logout"), nil, token)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	resp = testutil.PostJSON(t, ts.URL("/auth/logout"), nil, "")
	testutil.AssertStatusCode(t, resp, http.StatusOK)
}

func TestAuthHandler_ProfileRequiresToken(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.WithConfig(func(c *config.Config) {
		c.Auth.Required = false
	}))

	resp := testutil.Get(t, ts.URL("/auth/profile"), "")
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Authentication required")
}

func TestAuthHandler_RateLimited(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.WithConfig(func(c *config.Config) {
		c.RateLimit.RPS = 0.001
		c.RateLimit.Burst = 2
	}))

	body := map[string]string{"username": "nobody", "password": "whatever"}
	var statuses []int
	for i := 0; i < 3; i++ {
		resp := testutil.PostJSON(t, ts.URL("/auth/login"), body, "")
		statuses = append(statuses, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			testutil.AssertErrorResponse(t, resp, http.StatusTooManyRequests, "too many requests")
		}
	}
	require.Len(t, statuses, 3)
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, statuses)

	// the limiter on /auth does not throttle /health
	resp := testutil.Get(t, ts.URL("/health"), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))
}

func TestAuthHandler_RateLimitIsPerClient(t *testing.T) {
	ts := testutil.NewTestServer(t, testutil.WithConfig(func(c *config.Config) {
		c.RateLimit.RPS = 5
		c.RateLimit.Burst = 10
	}))

	postFrom := func(ip, path string, body interface{}) *http.Response {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.URL(path), body, "")
		req.Header.Set("X-Real-IP", ip)
		return testutil.Do(t, req)
	}

	limited := 0
	for i := 0; i < 20; i++ {
		resp := postFrom("192.0.2.10", "/auth/login", map[string]string{"username": "nobody", "password": "whatever"})
		if resp.StatusCode == http.StatusTooManyRequests {
			limited++
		}
	}
	require.Positive(t, limited, "flooding client should be throttled")

	resp := postFrom("198.51.100.20", "/auth/register", map[string]string{
		"username": "bystander",
		"email":    "bystander@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// downUserRepo fails every lookup the way an unreachable database does.
type downUserRepo struct {
	repository.UserRepository
}

func (downUserRepo) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, fmt.Errorf("gormrepo.UserRepository.Exists: %w: %v", domain.ErrStorageUnavailable, "connection refused")
}

func TestAuthHandler_RegisterStorageFailure(t *testing.T) {
	repos := memory.NewRepositories(memory.NewStore())
	repos.User = downUserRepo{UserRepository: repos.User}
	ts := testutil.NewTestServer(t, testutil.WithRepositories(repos))

	resp := testutil.PostJSON(t, ts.URL("/auth/register"), map[string]string{
		"username": "newuser",
		"email":    "new@example.com",
		"password": "password123",
	}, "")

	testutil.AssertErrorResponse(t, resp, http.StatusInternalServerError,
		"Registration failed: service.AuthService.Register: gormrepo.UserRepository.Exists: storage unavailable: connection refused")
}
