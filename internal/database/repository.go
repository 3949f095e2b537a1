package database

import "errors"

// Sentinel errors for the capacity-gated join. Anything else coming out of
// AddMember is an infrastructure failure.
var (
	ErrRoomFull   = errors.New("room is full")
	ErrRoomClosed = errors.New("room is not accepting members")
)

// LiveRoomRepository is the transactional store behind the room lifecycle
// engine. Multi-step writes (create, join, leave) each run inside a single
// transaction; the join and leave transactions lock the room row first so
// that concurrent mutations of the same room serialize.
type LiveRoomRepository interface {
	Ping() error

	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(id int) (User, error)
	GetAccountByName(name string) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)

	// CreateRoom inserts the room in Waiting status and the host's member
	// row in one transaction.
	CreateRoom(params CreateRoomParams) (Room, error)
	GetRoomByExternalId(externalId string) (Room, error)
	// ListWaitingRooms returns rooms still accepting members, with their
	// member counts. liveId 0 means all songs.
	ListWaitingRooms(liveId int) ([]RoomListing, error)
	UpdateRoomStatus(roomId, status int) error

	// AddMember locks the room row, re-checks status and capacity under the
	// lock, and inserts the member. Returns sql.ErrNoRows if the room is
	// gone, ErrRoomClosed if it left Waiting, ErrRoomFull at capacity.
	AddMember(roomId, userId, difficulty int) error
	GetRoomMembers(roomId int) ([]Member, error)
	// RemoveMember deletes the member row and, in the same transaction,
	// deletes the room if it emptied or elects the remaining member with the
	// lowest user id as host if the host departed. Reports whether the room
	// was deleted.
	RemoveMember(roomId, userId int) (bool, error)

	SubmitScore(roomId, userId int, judgeCounts [JudgeCount]int, score int) error
	// ZeroUnsetScores writes zero judgements and a zero score for every
	// member of the room whose score is still NULL, returning how many rows
	// it touched. Safe to call on a dissolved or deleted room.
	ZeroUnsetScores(roomId int) (int, error)
	GetMemberResults(roomId int) ([]MemberResult, error)
}
