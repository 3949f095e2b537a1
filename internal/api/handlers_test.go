package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkaneda/liveroom/internal/config"
	"github.com/mkaneda/liveroom/internal/database"
	"github.com/mkaneda/liveroom/internal/room"
	"github.com/mkaneda/liveroom/internal/stats"
	"github.com/mkaneda/liveroom/internal/testutil"
	"github.com/mkaneda/liveroom/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestApp wires a full app against the given repository with a real room
// service, so handler tests exercise the same path as production requests.
func newTestApp(t *testing.T, repo database.LiveRoomRepository) *LiveRoomApp {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.AnythingOfType("string")).Return()
	su.On("Incr", mock.AnythingOfType("string")).Return()
	su.On("Decr", mock.AnythingOfType("string")).Return()

	rooms := room.NewRoomService(testutil.TestLogger(t), repo, su)

	return NewLiveRoomApp(http.NewServeMux(), testutil.TestLogger(t), rooms, repo, su, &config.Config{
		ServerAddr: "localhost:0",
		SigningKey: []byte("test-signing-key"),
	})
}

func createTestAccounts(t *testing.T, repo *database.MemLiveRoomRepository, n int) []database.User {
	users := make([]database.User, 0, n)
	for i := 0; i < n; i++ {
		u, err := repo.CreateAccount(database.CreateAccountParams{
			Name:         fmt.Sprintf("player%d", i+1),
			LeaderCardId: 100 + i,
			PasswordHash: "hash",
		})
		require.NoError(t, err, "expected account creation to succeed")
		users = append(users, u)
	}
	return users
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	buf := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buf).Encode(v), "expected request body to encode")
	return buf
}

func authedRequest(t *testing.T, target string, body any, userId int) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, jsonBody(t, body))
	return req.WithContext(WithUserId(req.Context(), userId))
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name:    "successful health check",
			mockErr: nil,
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockLiveRoomRepository{}
			defer mockRepo.AssertExpectations(t)
			mockRepo.On("Ping").Return(tc.mockErr).Once()

			app := NewLiveRoomApp(http.NewServeMux(), testutil.TestLogger(t), nil, mockRepo, nil, &config.Config{})
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			app.healthCheck(rr, req)

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected status code to be 500")
			} else {
				assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")
				assert.Equal(t, "OK", rr.Body.String(), "expected response body to be 'OK'")
			}
		})
	}
}

func TestRoomCreateHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 1)

	tcases := []struct {
		name         string
		body         any
		authed       bool
		expectedCode int
	}{
		{
			name:         "successfully creates a room",
			body:         RoomCreateRequest{LiveId: 1001, SelectDifficulty: types.DifficultyNormal},
			authed:       true,
			expectedCode: http.StatusOK,
		},
		{
			name:         "fails with invalid json body",
			body:         "invalid json",
			authed:       true,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails with invalid difficulty",
			body:         RoomCreateRequest{LiveId: 1001, SelectDifficulty: 99},
			authed:       true,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails without user in context",
			body:         RoomCreateRequest{LiveId: 1001, SelectDifficulty: types.DifficultyNormal},
			authed:       false,
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			var req *http.Request
			if tc.authed {
				req = authedRequest(t, "/api/room/create", tc.body, users[0].Id)
			} else {
				req = httptest.NewRequest(http.MethodPost, "/api/room/create", jsonBody(t, tc.body))
			}

			rr := httptest.NewRecorder()
			app.roomCreate(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
			if tc.expectedCode == http.StatusOK {
				var resp RoomCreateResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.NotEmpty(t, resp.RoomId, "expected a room id in the response")
			}
		})
	}
}

func TestRoomListHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 1)

	created, err := app.rooms.CreateRoom(1001, users[0].Id, types.DifficultyNormal)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/room/list", jsonBody(t, RoomListRequest{LiveId: 1001}))
	app.roomList(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

	var resp RoomListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.RoomInfoList, 1, "expected one room in the listing")
	assert.Equal(t, created.ExternalId, resp.RoomInfoList[0].RoomId, "expected room id to match")
	assert.Equal(t, database.MaxRoomMembers, resp.RoomInfoList[0].MaxUserCount, "expected capacity in listing")
}

func TestRoomJoinHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 6)

	created, err := app.rooms.CreateRoom(1001, users[0].Id, types.DifficultyNormal)
	require.NoError(t, err)

	tcases := []struct {
		name           string
		body           any
		userId         int
		expectedCode   int
		expectedResult types.JoinRoomResult
	}{
		{
			name:           "successfully joins a room",
			body:           RoomJoinRequest{RoomId: created.ExternalId, SelectDifficulty: types.DifficultyHard},
			userId:         users[1].Id,
			expectedCode:   http.StatusOK,
			expectedResult: types.JoinOk,
		},
		{
			name:           "reports a vanished room as disbanded",
			body:           RoomJoinRequest{RoomId: "no-such-room", SelectDifficulty: types.DifficultyNormal},
			userId:         users[2].Id,
			expectedCode:   http.StatusOK,
			expectedResult: types.JoinDisbanded,
		},
		{
			name:         "fails with missing room id",
			body:         RoomJoinRequest{SelectDifficulty: types.DifficultyNormal},
			userId:       users[2].Id,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails with invalid difficulty",
			body:         RoomJoinRequest{RoomId: created.ExternalId, SelectDifficulty: 0},
			userId:       users[2].Id,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.roomJoin(rr, authedRequest(t, "/api/room/join", tc.body, tc.userId))

			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
			if tc.expectedCode == http.StatusOK {
				var resp RoomJoinResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tc.expectedResult, resp.JoinRoomResult, "expected join result to match")
			}
		})
	}

	// fill the remaining slots, then the next join reports full
	require.Equal(t, types.JoinOk, app.rooms.JoinRoom(created.ExternalId, users[2].Id, types.DifficultyNormal))
	require.Equal(t, types.JoinOk, app.rooms.JoinRoom(created.ExternalId, users[3].Id, types.DifficultyNormal))

	rr := httptest.NewRecorder()
	body := RoomJoinRequest{RoomId: created.ExternalId, SelectDifficulty: types.DifficultyNormal}
	app.roomJoin(rr, authedRequest(t, "/api/room/join", body, users[4].Id))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp RoomJoinResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, types.JoinRoomFull, resp.JoinRoomResult, "expected full room to reject the join")
}

func TestRoomWaitHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 2)

	created, err := app.rooms.CreateRoom(1001, users[0].Id, types.DifficultyNormal)
	require.NoError(t, err)
	require.Equal(t, types.JoinOk, app.rooms.JoinRoom(created.ExternalId, users[1].Id, types.DifficultyHard))

	t.Run("reports status and members", func(t *testing.T) {
		rr := httptest.NewRecorder()
		app.roomWait(rr, authedRequest(t, "/api/room/wait", RoomWaitRequest{RoomId: created.ExternalId}, users[1].Id))

		assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

		var resp RoomWaitResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, types.RoomWaiting, resp.Status, "expected room to be waiting")
		require.Len(t, resp.RoomUserList, 2, "expected both members listed")

		for _, u := range resp.RoomUserList {
			assert.Equal(t, u.UserId == users[0].Id, u.IsHost, "expected only the creator to be host")
			assert.Equal(t, u.UserId == users[1].Id, u.IsMe, "expected only the caller to be marked")
		}
	})

	t.Run("unknown room returns 404", func(t *testing.T) {
		rr := httptest.NewRecorder()
		app.roomWait(rr, authedRequest(t, "/api/room/wait", RoomWaitRequest{RoomId: "no-such-room"}, users[0].Id))
		assert.Equal(t, http.StatusNotFound, rr.Code, "expected status code to be 404")
	})
}

func TestRoomStartHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 1)

	created, err := app.rooms.CreateRoom(1001, users[0].Id, types.DifficultyNormal)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	app.roomStart(rr, authedRequest(t, "/api/room/start", RoomStartRequest{RoomId: created.ExternalId}, users[0].Id))
	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

	status, _, err := app.rooms.RoomState(created.ExternalId, users[0].Id)
	require.NoError(t, err)
	assert.Equal(t, types.RoomLiveStart, status, "expected room to be live after start")

	rr = httptest.NewRecorder()
	app.roomStart(rr, authedRequest(t, "/api/room/start", RoomStartRequest{RoomId: "no-such-room"}, users[0].Id))
	assert.Equal(t, http.StatusNotFound, rr.Code, "expected status code to be 404")
}

func TestRoomEndHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 1)

	created, err := app.rooms.CreateRoom(1001, users[0].Id, types.DifficultyNormal)
	require.NoError(t, err)
	require.NoError(t, app.rooms.StartRoom(created.ExternalId))

	tcases := []struct {
		name         string
		body         RoomEndRequest
		expectedCode int
	}{
		{
			name: "successfully records a result",
			body: RoomEndRequest{
				RoomId:         created.ExternalId,
				JudgeCountList: []int{90, 5, 3, 1, 1},
				Score:          123456,
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "fails with wrong judge count length",
			body: RoomEndRequest{
				RoomId:         created.ExternalId,
				JudgeCountList: []int{90, 5, 3},
				Score:          123456,
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "fails with unknown room",
			body: RoomEndRequest{
				RoomId:         "no-such-room",
				JudgeCountList: []int{90, 5, 3, 1, 1},
				Score:          123456,
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			app.roomEnd(rr, authedRequest(t, "/api/room/end", tc.body, users[0].Id))
			assert.Equal(t, tc.expectedCode, rr.Code, "expected status code to match")
		})
	}
}

func TestRoomResultHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 2)

	created, err := app.rooms.CreateRoom(1001, users[0].Id, types.DifficultyNormal)
	require.NoError(t, err)
	require.Equal(t, types.JoinOk, app.rooms.JoinRoom(created.ExternalId, users[1].Id, types.DifficultyNormal))
	require.NoError(t, app.rooms.StartRoom(created.ExternalId))
	require.NoError(t, app.rooms.EndRoom(created.ExternalId, users[0].Id, []int{1, 2, 3, 4, 5}, 100))

	t.Run("empty list while unfinished", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/room/result", jsonBody(t, RoomResultRequest{RoomId: created.ExternalId}))
		app.roomResult(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp RoomResultResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Empty(t, resp.ResultUserList, "expected no results while a member is unfinished")
	})

	t.Run("full list once everyone finished", func(t *testing.T) {
		require.NoError(t, app.rooms.EndRoom(created.ExternalId, users[1].Id, []int{5, 4, 3, 2, 1}, 200))

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/room/result", jsonBody(t, RoomResultRequest{RoomId: created.ExternalId}))
		app.roomResult(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp RoomResultResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Len(t, resp.ResultUserList, 2, "expected one result per member")
		assert.Equal(t, 100, resp.ResultUserList[0].Score)
		assert.Equal(t, 200, resp.ResultUserList[1].Score)
	})

	t.Run("unknown room returns 404", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/room/result", jsonBody(t, RoomResultRequest{RoomId: "no-such-room"}))
		app.roomResult(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code, "expected status code to be 404")
	})
}

func TestRoomLeaveHandler(t *testing.T) {
	repo := database.NewMemLiveRoomRepository()
	app := newTestApp(t, repo)
	users := createTestAccounts(t, repo, 2)

	created, err := app.rooms.CreateRoom(1001, users[0].Id, types.DifficultyNormal)
	require.NoError(t, err)
	require.Equal(t, types.JoinOk, app.rooms.JoinRoom(created.ExternalId, users[1].Id, types.DifficultyNormal))

	rr := httptest.NewRecorder()
	app.roomLeave(rr, authedRequest(t, "/api/room/leave", RoomLeaveRequest{RoomId: created.ExternalId}, users[1].Id))
	assert.Equal(t, http.StatusOK, rr.Code, "expected status code to be 200")

	_, members, err := app.rooms.RoomState(created.ExternalId, users[0].Id)
	require.NoError(t, err)
	require.Len(t, members, 1, "expected only the host to remain")
	assert.Equal(t, users[0].Id, members[0].UserId, "expected host to remain")

	rr = httptest.NewRecorder()
	app.roomLeave(rr, authedRequest(t, "/api/room/leave", RoomLeaveRequest{RoomId: "no-such-room"}, users[0].Id))
	assert.Equal(t, http.StatusNotFound, rr.Code, "expected status code to be 404")
}
