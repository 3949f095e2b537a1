package database

import (
	"database/sql"
	"sort"
	"sync"
	"time"
)

// MemLiveRoomRepository is an in-memory LiveRoomRepository used by tests,
// including the concurrent-join stress test. A single mutex around each
// operation stands in for the row lock the Postgres implementation takes,
// giving the same per-room serialization guarantees.
type MemLiveRoomRepository struct {
	mu      sync.Mutex
	nextId  int
	users   map[int]User
	rooms   map[int]*Room
	members map[int]map[int]*memMember
}

type memMember struct {
	userId      int
	difficulty  int
	judgeCounts [JudgeCount]int
	score       int
	scoreSet    bool
}

func NewMemLiveRoomRepository() *MemLiveRoomRepository {
	return &MemLiveRoomRepository{
		nextId:  1,
		users:   make(map[int]User),
		rooms:   make(map[int]*Room),
		members: make(map[int]map[int]*memMember),
	}
}

func (m *MemLiveRoomRepository) Ping() error { return nil }

func (m *MemLiveRoomRepository) CreateAccount(params CreateAccountParams) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := User{
		Id:           m.nextId,
		Name:         params.Name,
		LeaderCardId: params.LeaderCardId,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	m.nextId++
	m.users[u.Id] = u

	return u, nil
}

func (m *MemLiveRoomRepository) GetAccountById(id int) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m *MemLiveRoomRepository) GetAccountByName(name string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Name == name {
			return u, nil
		}
	}
	return User{}, sql.ErrNoRows
}

func (m *MemLiveRoomRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[params.UserId]
	if !ok {
		return User{}, sql.ErrNoRows
	}

	u.Name = params.Name
	u.LeaderCardId = params.LeaderCardId
	u.UpdatedAt = time.Now().UTC()
	m.users[u.Id] = u

	return u, nil
}

func (m *MemLiveRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room := &Room{
		Id:         m.nextId,
		ExternalId: params.ExternalId,
		LiveId:     params.LiveId,
		HostId:     params.HostId,
		Status:     RoomStatusWaiting,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	m.nextId++
	m.rooms[room.Id] = room
	m.members[room.Id] = map[int]*memMember{
		params.HostId: {userId: params.HostId, difficulty: params.HostDifficulty},
	}

	return *room, nil
}

func (m *MemLiveRoomRepository) GetRoomByExternalId(externalId string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, room := range m.rooms {
		if room.ExternalId == externalId {
			return *room, nil
		}
	}
	return Room{}, sql.ErrNoRows
}

func (m *MemLiveRoomRepository) ListWaitingRooms(liveId int) ([]RoomListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listings := make([]RoomListing, 0)
	for _, room := range m.rooms {
		if room.Status != RoomStatusWaiting {
			continue
		}
		if liveId != 0 && room.LiveId != liveId {
			continue
		}

		listings = append(listings, RoomListing{
			Id:          room.Id,
			ExternalId:  room.ExternalId,
			LiveId:      room.LiveId,
			MemberCount: len(m.members[room.Id]),
		})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].Id < listings[j].Id })

	return listings, nil
}

func (m *MemLiveRoomRepository) UpdateRoomStatus(roomId, status int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomId]
	if !ok {
		return nil
	}
	room.Status = status
	room.UpdatedAt = time.Now().UTC()

	return nil
}

func (m *MemLiveRoomRepository) AddMember(roomId, userId, difficulty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomId]
	if !ok {
		return sql.ErrNoRows
	}
	if room.Status != RoomStatusWaiting {
		return ErrRoomClosed
	}
	if len(m.members[roomId]) >= MaxRoomMembers {
		return ErrRoomFull
	}

	m.members[roomId][userId] = &memMember{userId: userId, difficulty: difficulty}

	return nil
}

func (m *MemLiveRoomRepository) GetRoomMembers(roomId int) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := make([]Member, 0, MaxRoomMembers)
	for _, mm := range m.members[roomId] {
		u := m.users[mm.userId]
		members = append(members, Member{
			RoomId:       roomId,
			UserId:       mm.userId,
			Name:         u.Name,
			LeaderCardId: u.LeaderCardId,
			Difficulty:   mm.difficulty,
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserId < members[j].UserId })

	return members, nil
}

func (m *MemLiveRoomRepository) RemoveMember(roomId, userId int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomId]
	if !ok {
		return false, sql.ErrNoRows
	}

	delete(m.members[roomId], userId)

	if len(m.members[roomId]) == 0 {
		delete(m.rooms, roomId)
		delete(m.members, roomId)
		return true, nil
	}

	if room.HostId == userId {
		newHost := 0
		for id := range m.members[roomId] {
			if newHost == 0 || id < newHost {
				newHost = id
			}
		}
		room.HostId = newHost
		room.UpdatedAt = time.Now().UTC()
	}

	return false, nil
}

func (m *MemLiveRoomRepository) SubmitScore(roomId, userId int, judgeCounts [JudgeCount]int, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mm, ok := m.members[roomId][userId]
	if !ok {
		return sql.ErrNoRows
	}

	mm.judgeCounts = judgeCounts
	mm.score = score
	mm.scoreSet = true

	return nil
}

func (m *MemLiveRoomRepository) ZeroUnsetScores(roomId int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for _, mm := range m.members[roomId] {
		if !mm.scoreSet {
			mm.judgeCounts = [JudgeCount]int{}
			mm.score = 0
			mm.scoreSet = true
			n++
		}
	}

	return n, nil
}

func (m *MemLiveRoomRepository) GetMemberResults(roomId int) ([]MemberResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]MemberResult, 0, MaxRoomMembers)
	for _, mm := range m.members[roomId] {
		r := MemberResult{UserId: mm.userId}
		if mm.scoreSet {
			for i, c := range mm.judgeCounts {
				r.JudgeCounts[i] = sql.NullInt64{Int64: int64(c), Valid: true}
			}
			r.Score = sql.NullInt64{Int64: int64(mm.score), Valid: true}
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].UserId < results[j].UserId })

	return results, nil
}
