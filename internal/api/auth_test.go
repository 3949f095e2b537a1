package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkaneda/liveroom/internal/database"
	"github.com/mkaneda/liveroom/internal/testutil"
	"github.com/mkaneda/liveroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserId(t *testing.T) {
	tcases := []struct {
		name     string
		ctx      context.Context
		userId   int
		expected bool
	}{
		{
			name:     "no user ID",
			ctx:      context.Background(),
			expected: false,
		},
		{
			name:     "user ID set",
			ctx:      WithUserId(context.Background(), 42),
			userId:   42,
			expected: true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			userId, ok := UserId(tc.ctx)
			assert.Equal(t, tc.expected, ok, "expected UserId to return %v", tc.expected)
			assert.Equal(t, tc.userId, userId, "expected UserId to return %d", tc.userId)
		})
	}
}

func TestCreateToken_ExtractUserId(t *testing.T) {
	app := &LiveRoomApp{
		log:        testutil.TestLogger(t),
		signingKey: []byte("test-signing-key"),
	}

	token, err := app.createToken(42, time.Hour)
	require.NoError(t, err, "expected token creation to succeed")

	userId, err := app.extractUserIdFromToken(token)
	assert.NoError(t, err, "expected token to verify")
	assert.Equal(t, 42, userId, "expected user id claim to round-trip")

	t.Run("fails with wrong signing key", func(t *testing.T) {
		other := &LiveRoomApp{
			log:        testutil.TestLogger(t),
			signingKey: []byte("other-signing-key"),
		}
		_, err := other.extractUserIdFromToken(token)
		assert.Error(t, err, "expected verification with a different key to fail")
	})

	t.Run("fails with expired token", func(t *testing.T) {
		expired, err := app.createToken(42, -time.Hour)
		require.NoError(t, err)
		_, err = app.extractUserIdFromToken(expired)
		assert.Error(t, err, "expected expired token to be rejected")
	})

	t.Run("fails with garbage token", func(t *testing.T) {
		_, err := app.extractUserIdFromToken("not-a-token")
		assert.Error(t, err, "expected malformed token to be rejected")
	})
}

func Test_hashPassword_verifyPassword(t *testing.T) {
	hash, err := hashPassword("secret-password")
	require.NoError(t, err, "expected hashing to succeed")
	assert.NotEqual(t, "secret-password", hash, "expected hash to differ from the password")

	assert.True(t, verifyPassword(hash, "secret-password"), "expected correct password to verify")
	assert.False(t, verifyPassword(hash, "wrong-password"), "expected wrong password to fail")
}

func TestUserCreateHandler(t *testing.T) {
	tcases := []struct {
		name         string
		body         any
		expectedCode int
	}{
		{
			name: "successfully creates an account",
			body: UserCreateRequest{
				UserName:     "newplayer",
				LeaderCardId: 1000,
				Password:     "password",
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "fails with invalid json body",
			body:         "invalid json",
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "fails with missing user name",
			body: UserCreateRequest{
				Password: "password",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "fails with missing password",
			body: UserCreateRequest{
				UserName: "newplayer",
			},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, database.NewMemLiveRoomRepository())

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/user/create", jsonBody(t, tc.body))
			app.userCreate(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
			if tc.expectedCode == http.StatusCreated {
				var resp UserCreateResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.NotEmpty(t, resp.UserToken, "expected a token in the response")

				userId, err := app.extractUserIdFromToken(resp.UserToken)
				assert.NoError(t, err, "expected issued token to verify")
				assert.NotZero(t, userId, "expected token to carry the new user id")
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)

	hash, err := hashPassword("password")
	require.NoError(t, err)
	_, err = repo.CreateAccount(database.CreateAccountParams{
		Name:         "player1",
		LeaderCardId: 100,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	tcases := []struct {
		name         string
		body         LoginRequest
		expectedCode int
	}{
		{
			name:         "successful login",
			body:         LoginRequest{UserName: "player1", Password: "password"},
			expectedCode: http.StatusOK,
		},
		{
			name:         "fails with wrong password",
			body:         LoginRequest{UserName: "player1", Password: "wrong"},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "fails with unknown user",
			body:         LoginRequest{UserName: "ghost", Password: "password"},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "fails with missing password",
			body:         LoginRequest{UserName: "player1"},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, tc.body))
			app.login(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
			if tc.expectedCode == http.StatusOK {
				var resp UserCreateResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.NotEmpty(t, resp.UserToken, "expected a token in the response")
			}
		})
	}
}

func TestUserMeHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	app.userMe(rr, req.WithContext(WithUserId(req.Context(), users[0].Id)))

	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

	var resp types.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, users[0].Id, resp.Id, "expected user id to match")
	assert.Equal(t, users[0].Name, resp.Name, "expected user name to match")
	assert.Equal(t, users[0].LeaderCardId, resp.LeaderCardId, "expected leader card to match")

	rr = httptest.NewRecorder()
	app.userMe(rr, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected 401 without user in context")
}

func TestUserUpdateHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 1)

	tcases := []struct {
		name         string
		body         any
		expectedCode int
	}{
		{
			name:         "successfully updates the account",
			body:         UserUpdateRequest{UserName: "renamed", LeaderCardId: 777},
			expectedCode: http.StatusOK,
		},
		{
			name:         "fails with missing user name",
			body:         UserUpdateRequest{LeaderCardId: 777},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails with invalid json body",
			body:         "invalid json",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.userUpdate(rr, authedRequest(t, "/api/user/update", tc.body, users[0].Id))

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
			if tc.expectedCode == http.StatusOK {
				var resp types.User
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, "renamed", resp.Name, "expected updated name")
				assert.Equal(t, 777, resp.LeaderCardId, "expected updated leader card")
			}
		})
	}
}
