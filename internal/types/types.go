package types

// LiveDifficulty is the difficulty a member picked for the song.
type LiveDifficulty int

const (
	DifficultyNormal LiveDifficulty = 1
	DifficultyHard   LiveDifficulty = 2
)

func (d LiveDifficulty) Valid() bool {
	return d == DifficultyNormal || d == DifficultyHard
}

// JoinRoomResult is the outcome of a join attempt. These are domain
// outcomes returned to the client as data, not errors.
type JoinRoomResult int

const (
	JoinOk         JoinRoomResult = 1
	JoinRoomFull   JoinRoomResult = 2
	JoinDisbanded  JoinRoomResult = 3
	JoinOtherError JoinRoomResult = 4
)

// RoomStatus is the room lifecycle state. The only legal transitions are
// Waiting -> LiveStart -> Dissolved.
type RoomStatus int

const (
	RoomWaiting   RoomStatus = 1
	RoomLiveStart RoomStatus = 2
	RoomDissolved RoomStatus = 3
)

type User struct {
	Id           int    `json:"id"`
	Name         string `json:"name"`
	LeaderCardId int    `json:"leader_card_id"`
}

// RoomInfo is a listing entry for a joinable room.
type RoomInfo struct {
	RoomId          string `json:"room_id"`
	LiveId          int    `json:"live_id"`
	JoinedUserCount int    `json:"joined_user_count"`
	MaxUserCount    int    `json:"max_user_count"`
}

// RoomUser is a member as seen by a polling client. IsHost is recomputed
// against the registry's current host on every read.
type RoomUser struct {
	UserId           int            `json:"user_id"`
	Name             string         `json:"name"`
	LeaderCardId     int            `json:"leader_card_id"`
	SelectDifficulty LiveDifficulty `json:"select_difficulty"`
	IsMe             bool           `json:"is_me"`
	IsHost           bool           `json:"is_host"`
}

// ResultUser is one member's finalized play result. JudgeCountList holds
// the five judgement counters ordered best to worst.
type ResultUser struct {
	UserId         int   `json:"user_id"`
	JudgeCountList []int `json:"judge_count_list"`
	Score          int   `json:"score"`
}
