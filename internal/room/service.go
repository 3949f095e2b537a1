package room

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mkaneda/liveroom/internal/database"
	"github.com/mkaneda/liveroom/internal/stats"
	"github.com/mkaneda/liveroom/internal/types"
	"github.com/teris-io/shortid"
)

const (
	// defaultStartTimeout bounds a full play-through; the longest supported
	// song runs 135 seconds.
	defaultStartTimeout = 150 * time.Second
	// defaultFinishTimeout bounds how long a room waits for stragglers once
	// the first result arrives.
	defaultFinishTimeout = 10 * time.Second
)

const (
	metricActiveRooms     = "ActiveRooms"
	metricRoomsCreated    = "RoomsCreated"
	metricRoomsDissolved  = "RoomsDissolved"
	metricJoinsAccepted   = "JoinsAccepted"
	metricJoinsRejected   = "JoinsRejected"
	metricScoresSubmitted = "ScoresSubmitted"
	metricTimeoutsFired   = "TimeoutsFired"
)

// ErrJudgeCount is returned when a submitted judgement list does not have
// exactly five counters. It is a caller-input error; nothing is written.
var ErrJudgeCount = errors.New("judge count list must have exactly 5 elements")

// RoomService owns the room lifecycle state machine. It is the only writer
// that triggers lifecycle transitions; all room state lives in the store and
// nothing is cached across requests.
type RoomService struct {
	log   *log.Logger
	db    database.LiveRoomRepository
	stats stats.StatsProvider
	// generateRoomId produces opaque room identifiers. Swappable in tests.
	generateRoomId func() (string, error)
	startTimeout   time.Duration
	finishTimeout  time.Duration
}

func NewRoomService(logger *log.Logger, db database.LiveRoomRepository, statsProvider stats.StatsProvider) *RoomService {
	s := &RoomService{
		log:            logger,
		db:             db,
		stats:          statsProvider,
		generateRoomId: shortid.Generate,
		startTimeout:   defaultStartTimeout,
		finishTimeout:  defaultFinishTimeout,
	}

	for _, name := range []string{
		metricActiveRooms,
		metricRoomsCreated,
		metricRoomsDissolved,
		metricJoinsAccepted,
		metricJoinsRejected,
		metricScoresSubmitted,
		metricTimeoutsFired,
	} {
		statsProvider.RegisterMetric(name)
	}

	return s
}

// CreateRoom inserts a room in Waiting status and joins the host as its
// first member in the same transaction.
func (s *RoomService) CreateRoom(liveId, hostId int, difficulty types.LiveDifficulty) (database.Room, error) {
	externalId, err := s.generateRoomId()
	if err != nil {
		return database.Room{}, fmt.Errorf("generate room id: %w", err)
	}

	room, err := s.db.CreateRoom(database.CreateRoomParams{
		ExternalId:     externalId,
		LiveId:         liveId,
		HostId:         hostId,
		HostDifficulty: int(difficulty),
	})
	if err != nil {
		return database.Room{}, fmt.Errorf("create room: %w", err)
	}

	s.stats.Incr(metricRoomsCreated)
	s.stats.Incr(metricActiveRooms)
	s.log.Printf("room %q created for live %d by user %d", room.ExternalId, liveId, hostId)

	return room, nil
}

// ListRooms returns joinable rooms. A room mid-game or dissolved never
// appears. liveId 0 lists rooms for all songs.
func (s *RoomService) ListRooms(liveId int) ([]types.RoomInfo, error) {
	listings, err := s.db.ListWaitingRooms(liveId)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	rooms := make([]types.RoomInfo, 0, len(listings))
	for _, l := range listings {
		rooms = append(rooms, types.RoomInfo{
			RoomId:          l.ExternalId,
			LiveId:          l.LiveId,
			JoinedUserCount: l.MemberCount,
			MaxUserCount:    database.MaxRoomMembers,
		})
	}

	return rooms, nil
}

// JoinRoom attempts to add the user to the room. The outcome is domain
// data: store failures collapse to JoinOtherError rather than surfacing as
// errors, so a join can never fail the transport.
func (s *RoomService) JoinRoom(roomId string, userId int, difficulty types.LiveDifficulty) types.JoinRoomResult {
	room, err := s.db.GetRoomByExternalId(roomId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.JoinDisbanded
		}
		s.log.Printf("join room %q: %v", roomId, err)
		return types.JoinOtherError
	}

	err = s.db.AddMember(room.Id, userId, int(difficulty))
	switch {
	case err == nil:
		s.stats.Incr(metricJoinsAccepted)
		return types.JoinOk
	case errors.Is(err, sql.ErrNoRows):
		return types.JoinDisbanded
	case errors.Is(err, database.ErrRoomFull):
		s.stats.Incr(metricJoinsRejected)
		return types.JoinRoomFull
	case errors.Is(err, database.ErrRoomClosed):
		s.stats.Incr(metricJoinsRejected)
		return types.JoinOtherError
	default:
		s.log.Printf("join room %q by user %d: %v", roomId, userId, err)
		return types.JoinOtherError
	}
}

// RoomState reports the room's lifecycle status and its members. IsHost is
// recomputed against the registry's current host id on every call since the
// host may have changed since the caller last polled.
func (s *RoomService) RoomState(roomId string, userId int) (types.RoomStatus, []types.RoomUser, error) {
	room, err := s.db.GetRoomByExternalId(roomId)
	if err != nil {
		return 0, nil, fmt.Errorf("get room %q: %w", roomId, err)
	}

	members, err := s.db.GetRoomMembers(room.Id)
	if err != nil {
		return 0, nil, fmt.Errorf("get members of room %q: %w", roomId, err)
	}

	users := make([]types.RoomUser, 0, len(members))
	for _, m := range members {
		users = append(users, types.RoomUser{
			UserId:           m.UserId,
			Name:             m.Name,
			LeaderCardId:     m.LeaderCardId,
			SelectDifficulty: types.LiveDifficulty(m.Difficulty),
			IsMe:             m.UserId == userId,
			IsHost:           m.UserId == room.HostId,
		})
	}

	return types.RoomStatus(room.Status), users, nil
}

// StartRoom transitions the room to LiveStart and arms the long timeout
// watcher. Any member may start; there is no quorum check.
func (s *RoomService) StartRoom(roomId string) error {
	room, err := s.db.GetRoomByExternalId(roomId)
	if err != nil {
		return fmt.Errorf("get room %q: %w", roomId, err)
	}

	if err := s.db.UpdateRoomStatus(room.Id, database.RoomStatusLiveStart); err != nil {
		return fmt.Errorf("start room %q: %w", roomId, err)
	}

	s.scheduleForceFinish(room.Id, s.startTimeout)
	s.log.Printf("room %q started", roomId)

	return nil
}

// EndRoom stores the caller's judgement counters and score. If the room is
// still live it arms the short watcher so stragglers cannot stall the
// result indefinitely.
func (s *RoomService) EndRoom(roomId string, userId int, judgeCounts []int, score int) error {
	if len(judgeCounts) != database.JudgeCount {
		return ErrJudgeCount
	}

	room, err := s.db.GetRoomByExternalId(roomId)
	if err != nil {
		return fmt.Errorf("get room %q: %w", roomId, err)
	}

	var counts [database.JudgeCount]int
	copy(counts[:], judgeCounts)

	if err := s.db.SubmitScore(room.Id, userId, counts, score); err != nil {
		return fmt.Errorf("submit score for user %d in room %q: %w", userId, roomId, err)
	}
	s.stats.Incr(metricScoresSubmitted)

	if room.Status == database.RoomStatusLiveStart {
		s.scheduleForceFinish(room.Id, s.finishTimeout)
	}

	return nil
}

// LeaveRoom removes the member. Emptying the room deletes it; a departing
// host hands off to the remaining member with the lowest user id. Both
// happen atomically with the removal inside the store transaction.
func (s *RoomService) LeaveRoom(roomId string, userId int) error {
	room, err := s.db.GetRoomByExternalId(roomId)
	if err != nil {
		return fmt.Errorf("get room %q: %w", roomId, err)
	}

	roomDeleted, err := s.db.RemoveMember(room.Id, userId)
	if err != nil {
		return fmt.Errorf("remove user %d from room %q: %w", userId, roomId, err)
	}

	if roomDeleted {
		s.stats.Decr(metricActiveRooms)
		s.log.Printf("room %q deleted after last member left", roomId)
	}

	return nil
}

// RoomResult assembles the room's result set. While any member's score is
// still unset it returns an empty list: partial results are meaningless for
// a synchronized score reveal. Once every score is present it returns the
// full list and dissolves the room. Calling again after dissolution returns
// the same frozen list.
func (s *RoomService) RoomResult(roomId string) ([]types.ResultUser, error) {
	room, err := s.db.GetRoomByExternalId(roomId)
	if err != nil {
		return nil, fmt.Errorf("get room %q: %w", roomId, err)
	}

	results, err := s.db.GetMemberResults(room.Id)
	if err != nil {
		return nil, fmt.Errorf("get results of room %q: %w", roomId, err)
	}

	users := make([]types.ResultUser, 0, len(results))
	for _, r := range results {
		if !r.Score.Valid {
			return []types.ResultUser{}, nil
		}

		judges := make([]int, database.JudgeCount)
		for i, j := range r.JudgeCounts {
			judges[i] = int(j.Int64)
		}
		users = append(users, types.ResultUser{
			UserId:         r.UserId,
			JudgeCountList: judges,
			Score:          int(r.Score.Int64),
		})
	}

	if room.Status != database.RoomStatusDissolved {
		if err := s.db.UpdateRoomStatus(room.Id, database.RoomStatusDissolved); err != nil {
			return nil, fmt.Errorf("dissolve room %q: %w", roomId, err)
		}
		s.stats.Incr(metricRoomsDissolved)
		s.stats.Decr(metricActiveRooms)
		s.log.Printf("room %q dissolved with %d results", roomId, len(users))
	}

	return users, nil
}
