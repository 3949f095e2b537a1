package database

import (
	"database/sql"
)

type PgLiveRoomRepository struct {
	conn *sql.DB
}

func NewPgLiveRoomRepository(dsn string) (*PgLiveRoomRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgLiveRoomRepository{conn: db}, nil
}

func (db *PgLiveRoomRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgLiveRoomRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
