package history

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Record is one finished match. Live room state is never persisted; only
// completed games reach the archive.
type Record struct {
	RoomCode  string
	Winner    string
	StartedAt time.Time
	EndedAt   time.Time
	Rounds    int
	Players   []PlayerResult
}

// PlayerResult is one player's final standing in a finished match.
type PlayerResult struct {
	Nickname string
	Role     string
	Survived bool
}

// Store archives finished matches.
type Store interface {
	Save(rec Record) error
	Close() error
}

var schema = `CREATE TABLE IF NOT EXISTS matches (
  id integer PRIMARY KEY AUTOINCREMENT,
  room_code varchar(8) NOT NULL,
  winner varchar(16) NOT NULL,
  started_at timestamp NOT NULL,
  ended_at timestamp NOT NULL,
  rounds int NOT NULL
);

CREATE TABLE IF NOT EXISTS match_players (
  match_id integer REFERENCES matches(id) ON DELETE CASCADE,
  nickname varchar(32) NOT NULL,
  role varchar(16) NOT NULL,
  survived boolean NOT NULL
);`

// SqliteStore keeps the archive in a local sqlite file.
type SqliteStore struct {
	conn   *sqlx.DB
	logger *slog.Logger
}

// Open connects to the archive database and ensures the schema exists.
func Open(path string, logger *slog.Logger) (*SqliteStore, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	logger.Info("match archive ready", "path", path)
	return &SqliteStore{conn: db, logger: logger}, nil
}

// Save writes a finished match and its per-player results in one transaction.
func (s *SqliteStore) Save(rec Record) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}

	res, err := tx.Exec(
		`INSERT INTO matches (room_code, winner, started_at, ended_at, rounds) VALUES (?, ?, ?, ?, ?)`,
		rec.RoomCode, rec.Winner, rec.StartedAt, rec.EndedAt, rec.Rounds,
	)
	if err != nil {
		tx.Rollback()
		return err
	}
	matchID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}

	for _, p := range rec.Players {
		if _, err := tx.Exec(
			`INSERT INTO match_players (match_id, nickname, role, survived) VALUES (?, ?, ?, ?)`,
			matchID, p.Nickname, p.Role, p.Survived,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// MatchCount returns how many finished matches the archive holds.
func (s *SqliteStore) MatchCount() (int, error) {
	var n int
	err := s.conn.Get(&n, `SELECT COUNT(*) FROM matches`)
	return n, err
}

// Close releases the database connection.
func (s *SqliteStore) Close() error {
	return s.conn.Close()
}
