package database

import (
	"github.com/stretchr/testify/mock"
)

type MockLiveRoomRepository struct {
	mock.Mock
}

func (m *MockLiveRoomRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockLiveRoomRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLiveRoomRepository) GetAccountById(id int) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLiveRoomRepository) GetAccountByName(name string) (User, error) {
	args := m.Called(name)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLiveRoomRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockLiveRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockLiveRoomRepository) GetRoomByExternalId(externalId string) (Room, error) {
	args := m.Called(externalId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockLiveRoomRepository) ListWaitingRooms(liveId int) ([]RoomListing, error) {
	args := m.Called(liveId)
	return args.Get(0).([]RoomListing), args.Error(1)
}
func (m *MockLiveRoomRepository) UpdateRoomStatus(roomId, status int) error {
	args := m.Called(roomId, status)
	return args.Error(0)
}
func (m *MockLiveRoomRepository) AddMember(roomId, userId, difficulty int) error {
	args := m.Called(roomId, userId, difficulty)
	return args.Error(0)
}
func (m *MockLiveRoomRepository) GetRoomMembers(roomId int) ([]Member, error) {
	args := m.Called(roomId)
	return args.Get(0).([]Member), args.Error(1)
}
func (m *MockLiveRoomRepository) RemoveMember(roomId, userId int) (bool, error) {
	args := m.Called(roomId, userId)
	return args.Bool(0), args.Error(1)
}
func (m *MockLiveRoomRepository) SubmitScore(roomId, userId int, judgeCounts [JudgeCount]int, score int) error {
	args := m.Called(roomId, userId, judgeCounts, score)
	return args.Error(0)
}
func (m *MockLiveRoomRepository) ZeroUnsetScores(roomId int) (int, error) {
	args := m.Called(roomId)
	return args.Int(0), args.Error(1)
}
func (m *MockLiveRoomRepository) GetMemberResults(roomId int) ([]MemberResult, error) {
	args := m.Called(roomId)
	return args.Get(0).([]MemberResult), args.Error(1)
}
