package database

import (
	"database/sql"
	"time"
)

// MaxRoomMembers is the fixed room capacity. The join transaction checks it
// under a row lock on the room.
const MaxRoomMembers = 4

// Room lifecycle status values as stored in the rooms table.
const (
	RoomStatusWaiting   = 1
	RoomStatusLiveStart = 2
	RoomStatusDissolved = 3
)

// JudgeCount is the number of judgement counters per member, ordered best
// (perfect) to worst (miss).
const JudgeCount = 5

type User struct {
	Id           int
	Name         string
	LeaderCardId int
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Room struct {
	Id         int
	ExternalId string
	LiveId     int
	HostId     int
	Status     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RoomListing is a waiting room with its current member count, as returned
// by the listing query.
type RoomListing struct {
	Id          int
	ExternalId  string
	LiveId      int
	MemberCount int
}

// Member is a user's membership row joined with their account attributes.
type Member struct {
	RoomId       int
	UserId       int
	Name         string
	LeaderCardId int
	Difficulty   int
}

// MemberResult carries a member's judgement counters and score. Score is
// NULL until the member submits a result or the timeout watcher zeroes it.
type MemberResult struct {
	UserId      int
	JudgeCounts [JudgeCount]sql.NullInt64
	Score       sql.NullInt64
}

type CreateAccountParams struct {
	Name         string
	LeaderCardId int
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId       int
	Name         string
	LeaderCardId int
}

type CreateRoomParams struct {
	ExternalId     string
	LiveId         int
	HostId         int
	HostDifficulty int
}
