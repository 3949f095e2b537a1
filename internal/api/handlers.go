package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkaneda/liveroom/internal/room"
	"github.com/mkaneda/liveroom/internal/types"
)

type RoomCreateRequest struct {
	LiveId           int                  `json:"live_id"`
	SelectDifficulty types.LiveDifficulty `json:"select_difficulty"`
}

type RoomCreateResponse struct {
	RoomId string `json:"room_id"`
}

type RoomListRequest struct {
	LiveId int `json:"live_id"`
}

type RoomListResponse struct {
	RoomInfoList []types.RoomInfo `json:"room_info_list"`
}

type RoomJoinRequest struct {
	RoomId           string               `json:"room_id"`
	SelectDifficulty types.LiveDifficulty `json:"select_difficulty"`
}

type RoomJoinResponse struct {
	JoinRoomResult types.JoinRoomResult `json:"join_room_result"`
}

type RoomWaitRequest struct {
	RoomId string `json:"room_id"`
}

type RoomWaitResponse struct {
	Status       types.RoomStatus `json:"status"`
	RoomUserList []types.RoomUser `json:"room_user_list"`
}

type RoomStartRequest struct {
	RoomId string `json:"room_id"`
}

type RoomEndRequest struct {
	RoomId         string `json:"room_id"`
	JudgeCountList []int  `json:"judge_count_list"`
	Score          int    `json:"score"`
}

type RoomResultRequest struct {
	RoomId string `json:"room_id"`
}

type RoomResultResponse struct {
	ResultUserList []types.ResultUser `json:"result_user_list"`
}

type RoomLeaveRequest struct {
	RoomId string `json:"room_id"`
}

type Empty struct{}

func (s *LiveRoomApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *LiveRoomApp) healthCheck(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *LiveRoomApp) roomCreate(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !req.SelectDifficulty.Valid() {
		errResp := NewBadRequestError("invalid select_difficulty")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newRoom, err := s.rooms.CreateRoom(req.LiveId, userId, req.SelectDifficulty)
	if err != nil {
		s.log.Print("create room:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomCreateResponse{RoomId: newRoom.ExternalId})
}

func (s *LiveRoomApp) roomList(w http.ResponseWriter, r *http.Request) {
	var req RoomListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	rooms, err := s.rooms.ListRooms(req.LiveId)
	if err != nil {
		s.log.Print("list rooms:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomListResponse{RoomInfoList: rooms})
}

func (s *LiveRoomApp) roomJoin(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomJoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.RoomId == "" || !req.SelectDifficulty.Valid() {
		errResp := NewBadRequestError("room_id and a valid select_difficulty are required")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	result := s.rooms.JoinRoom(req.RoomId, userId, req.SelectDifficulty)

	s.writeJson(w, http.StatusOK, RoomJoinResponse{JoinRoomResult: result})
}

func (s *LiveRoomApp) roomWait(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomWaitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	status, users, err := s.rooms.RoomState(req.RoomId, userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomWaitResponse{Status: status, RoomUserList: users})
}

func (s *LiveRoomApp) roomStart(w http.ResponseWriter, r *http.Request) {
	var req RoomStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.rooms.StartRoom(req.RoomId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, Empty{})
}

func (s *LiveRoomApp) roomEnd(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomEndRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	err := s.rooms.EndRoom(req.RoomId, userId, req.JudgeCountList, req.Score)
	if err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, room.ErrJudgeCount):
			errResp = NewBadRequestError("judge_count_list must have exactly 5 elements")
		case errors.Is(err, sql.ErrNoRows):
			errResp = NewNotFoundError()
		default:
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, Empty{})
}

func (s *LiveRoomApp) roomResult(w http.ResponseWriter, r *http.Request) {
	var req RoomResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	results, err := s.rooms.RoomResult(req.RoomId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, RoomResultResponse{ResultUserList: results})
}

func (s *LiveRoomApp) roomLeave(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req RoomLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError("")
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.rooms.LeaveRoom(req.RoomId, userId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, Empty{})
}
