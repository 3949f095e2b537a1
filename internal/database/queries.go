package database

import (
	"database/sql"
	"time"
)

const (
	insertMemberQuery = "INSERT INTO room_members (room_id, user_id, difficulty, created_at) " +
		"VALUES ($1, $2, $3, $4)"
	submitScoreQuery = "UPDATE room_members SET judge_perfect = $3, judge_great = $4, judge_good = $5, " +
		"judge_bad = $6, judge_miss = $7, score = $8 WHERE room_id = $1 AND user_id = $2"
	zeroUnsetScoresQuery = "UPDATE room_members SET judge_perfect = 0, judge_great = 0, judge_good = 0, " +
		"judge_bad = 0, judge_miss = 0, score = 0 WHERE room_id = $1 AND score IS NULL"
)

func (db *PgLiveRoomRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (name, leader_card_id, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, name, leader_card_id",
		params.Name,
		params.LeaderCardId,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.LeaderCardId,
	)

	return u, err
}

func (db *PgLiveRoomRepository) GetAccountById(id int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, leader_card_id FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Name,
		&user.LeaderCardId,
	)

	return user, err
}

func (db *PgLiveRoomRepository) GetAccountByName(name string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, name, leader_card_id, password_hash FROM accounts "+
			"WHERE name = $1 LIMIT 1",
		name,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Name,
		&user.LeaderCardId,
		&user.PasswordHash,
	)

	return user, err
}

func (db *PgLiveRoomRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET name = $2, leader_card_id = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, name, leader_card_id",
		params.UserId,
		params.Name,
		params.LeaderCardId,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Name,
		&u.LeaderCardId,
	)

	return u, err
}

func (db *PgLiveRoomRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res := tx.QueryRow(
		"INSERT INTO rooms (external_id, live_id, host_id, status, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $5) "+
			"RETURNING id, external_id, live_id, host_id, status, created_at, updated_at",
		params.ExternalId,
		params.LiveId,
		params.HostId,
		RoomStatusWaiting,
		time.Now().UTC(),
	)

	var room Room
	err = res.Scan(
		&room.Id,
		&room.ExternalId,
		&room.LiveId,
		&room.HostId,
		&room.Status,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return Room{}, err
	}

	_, err = tx.Exec(
		insertMemberQuery,
		room.Id,
		params.HostId,
		params.HostDifficulty,
		time.Now().UTC(),
	)
	if err != nil {
		return Room{}, err
	}

	if err = tx.Commit(); err != nil {
		return Room{}, err
	}

	return room, nil
}

func (db *PgLiveRoomRepository) GetRoomByExternalId(externalId string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, external_id, live_id, host_id, status, created_at, updated_at FROM rooms "+
			"WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.ExternalId,
		&room.LiveId,
		&room.HostId,
		&room.Status,
		&room.CreatedAt,
		&room.UpdatedAt,
	)

	return room, err
}

func (db *PgLiveRoomRepository) ListWaitingRooms(liveId int) ([]RoomListing, error) {
	query := "SELECT r.id, r.external_id, r.live_id, COUNT(m.user_id) FROM rooms r " +
		"JOIN room_members m ON m.room_id = r.id WHERE r.status = $1"
	args := []any{RoomStatusWaiting}

	if liveId != 0 {
		query += " AND r.live_id = $2"
		args = append(args, liveId)
	}
	query += " GROUP BY r.id, r.external_id, r.live_id ORDER BY r.id"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings = make([]RoomListing, 0)
	for rows.Next() {
		var l RoomListing
		if err = rows.Scan(&l.Id, &l.ExternalId, &l.LiveId, &l.MemberCount); err != nil {
			break
		}

		listings = append(listings, l)
	}

	return listings, err
}

func (db *PgLiveRoomRepository) UpdateRoomStatus(roomId, status int) error {
	_, err := db.conn.Exec(
		"UPDATE rooms SET status = $2, updated_at = $3 WHERE id = $1",
		roomId,
		status,
		time.Now().UTC(),
	)

	return err
}

// AddMember is the one place a read-then-write gap must be closed with a
// pessimistic lock: two concurrent joins that both observe count < capacity
// would otherwise both insert. The SELECT ... FOR UPDATE on the room row
// serializes joins per room.
func (db *PgLiveRoomRepository) AddMember(roomId, userId, difficulty int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var status int
	err = tx.QueryRow(
		"SELECT status FROM rooms WHERE id = $1 FOR UPDATE",
		roomId,
	).Scan(&status)
	if err != nil {
		return err
	}

	if status != RoomStatusWaiting {
		err = ErrRoomClosed
		return err
	}

	var count int
	err = tx.QueryRow(
		"SELECT COUNT(*) FROM room_members WHERE room_id = $1",
		roomId,
	).Scan(&count)
	if err != nil {
		return err
	}

	if count >= MaxRoomMembers {
		err = ErrRoomFull
		return err
	}

	_, err = tx.Exec(insertMemberQuery, roomId, userId, difficulty, time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgLiveRoomRepository) GetRoomMembers(roomId int) ([]Member, error) {
	rows, err := db.conn.Query(
		"SELECT m.room_id, m.user_id, a.name, a.leader_card_id, m.difficulty FROM room_members m "+
			"JOIN accounts a ON a.id = m.user_id WHERE m.room_id = $1 ORDER BY m.user_id",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members = make([]Member, 0, MaxRoomMembers)
	for rows.Next() {
		var m Member
		if err = rows.Scan(&m.RoomId, &m.UserId, &m.Name, &m.LeaderCardId, &m.Difficulty); err != nil {
			break
		}

		members = append(members, m)
	}

	return members, err
}

// RemoveMember deletes the membership row and resolves the consequences in
// the same transaction: an emptied room is deleted, a departed host is
// replaced by the remaining member with the lowest user id. The room row is
// locked first so succession never races a concurrent join or leave.
func (db *PgLiveRoomRepository) RemoveMember(roomId, userId int) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var hostId int
	err = tx.QueryRow(
		"SELECT host_id FROM rooms WHERE id = $1 FOR UPDATE",
		roomId,
	).Scan(&hostId)
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(
		"DELETE FROM room_members WHERE room_id = $1 AND user_id = $2",
		roomId,
		userId,
	)
	if err != nil {
		return false, err
	}

	var count int
	err = tx.QueryRow(
		"SELECT COUNT(*) FROM room_members WHERE room_id = $1",
		roomId,
	).Scan(&count)
	if err != nil {
		return false, err
	}

	var roomDeleted bool
	if count == 0 {
		_, err = tx.Exec("DELETE FROM rooms WHERE id = $1", roomId)
		if err != nil {
			return false, err
		}
		roomDeleted = true
	} else if hostId == userId {
		var newHost int
		err = tx.QueryRow(
			"SELECT user_id FROM room_members WHERE room_id = $1 ORDER BY user_id LIMIT 1",
			roomId,
		).Scan(&newHost)
		if err != nil {
			return false, err
		}

		_, err = tx.Exec(
			"UPDATE rooms SET host_id = $2, updated_at = $3 WHERE id = $1",
			roomId,
			newHost,
			time.Now().UTC(),
		)
		if err != nil {
			return false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}

	return roomDeleted, nil
}

func (db *PgLiveRoomRepository) SubmitScore(roomId, userId int, judgeCounts [JudgeCount]int, score int) error {
	res, err := db.conn.Exec(
		submitScoreQuery,
		roomId,
		userId,
		judgeCounts[0],
		judgeCounts[1],
		judgeCounts[2],
		judgeCounts[3],
		judgeCounts[4],
		score,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgLiveRoomRepository) ZeroUnsetScores(roomId int) (int, error) {
	res, err := db.conn.Exec(zeroUnsetScoresQuery, roomId)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func (db *PgLiveRoomRepository) GetMemberResults(roomId int) ([]MemberResult, error) {
	rows, err := db.conn.Query(
		"SELECT user_id, judge_perfect, judge_great, judge_good, judge_bad, judge_miss, score "+
			"FROM room_members WHERE room_id = $1 ORDER BY user_id",
		roomId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results = make([]MemberResult, 0, MaxRoomMembers)
	for rows.Next() {
		var r MemberResult
		err = rows.Scan(
			&r.UserId,
			&r.JudgeCounts[0],
			&r.JudgeCounts[1],
			&r.JudgeCounts[2],
			&r.JudgeCounts[3],
			&r.JudgeCounts[4],
			&r.Score,
		)
		if err != nil {
			break
		}

		results = append(results, r)
	}

	return results, err
}
