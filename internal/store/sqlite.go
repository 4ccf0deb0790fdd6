package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkeye/huddle/internal/core"
	"github.com/dkeye/huddle/internal/domain"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS channels (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL UNIQUE,
	room_id TEXT NOT NULL,
	name    TEXT NOT NULL,
	kind    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS channels_room ON channels(room_id, seq);
CREATE TABLE IF NOT EXISTS messages (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id     TEXT NOT NULL,
	channel_id  TEXT NOT NULL,
	id          TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	username    TEXT NOT NULL,
	text        TEXT NOT NULL,
	emoji       TEXT NOT NULL,
	attachments TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_channel ON messages(room_id, channel_id, seq);
CREATE TABLE IF NOT EXISTS users (
	id       TEXT PRIMARY KEY,
	username TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tokens (
	token   TEXT PRIMARY KEY,
	user_id TEXT NOT NULL
);
`

// SQLiteStore implements the room, message and user stores on SQLite.
// Message order is the autoincrement sequence, so concurrent appends to
// one channel are ordered by SQLite's single writer.
type SQLiteStore struct {
	pool *Pool
}

var (
	_ core.RoomStore    = (*SQLiteStore)(nil)
	_ core.MessageStore = (*SQLiteStore)(nil)
	_ core.UserStore    = (*SQLiteStore)(nil)
)

func OpenSQLite(path string, poolSize int) (*SQLiteStore, error) {
	pool, err := OpenPool(PoolConfig{
		Path:     path,
		PoolSize: poolSize,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{pool: pool}, nil
}

func (s *SQLiteStore) Close() error { return s.pool.Close() }

func (s *SQLiteStore) withConn(ctx context.Context, fn func(conn *sqlite.Conn) error) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)
	return fn(conn)
}

func (s *SQLiteStore) CreateRoom(ctx context.Context, room *domain.Room) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `INSERT INTO rooms (id, name) VALUES (?, ?)`, &sqlitex.ExecOptions{
			Args: []any{string(room.ID), room.Name},
		})
	})
}

func (s *SQLiteStore) AddChannel(ctx context.Context, roomID domain.RoomID, ch *domain.Channel) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endTransaction(&err)

		found, err := roomExists(conn, roomID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("room %s: %w", roomID, core.ErrNotFound)
		}
		return sqlitex.Execute(conn, `INSERT INTO channels (id, room_id, name, kind) VALUES (?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{string(ch.ID), string(roomID), ch.Name, string(ch.Kind)},
		})
	})
}

func roomExists(conn *sqlite.Conn, id domain.RoomID) (bool, error) {
	found := false
	err := sqlitex.Execute(conn, `SELECT 1 FROM rooms WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{string(id)},
		ResultFunc: func(*sqlite.Stmt) error {
			found = true
			return nil
		},
	})
	return found, err
}

func (s *SQLiteStore) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var room *domain.Room
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `SELECT id, name FROM rooms WHERE id = ?`, &sqlitex.ExecOptions{
			Args: []any{string(id)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				room = &domain.Room{ID: domain.RoomID(stmt.ColumnText(0)), Name: stmt.ColumnText(1)}
				return nil
			},
		})
		if err != nil || room == nil {
			return err
		}
		room.Channels, err = listChannels(conn, room.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", id, core.ErrNotFound)
	}
	return room, nil
}

func listChannels(conn *sqlite.Conn, roomID domain.RoomID) ([]domain.Channel, error) {
	out := []domain.Channel{}
	err := sqlitex.Execute(conn, `SELECT id, name, kind FROM channels WHERE room_id = ? ORDER BY seq`, &sqlitex.ExecOptions{
		Args: []any{string(roomID)},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			out = append(out, domain.Channel{
				ID:   domain.ChannelID(stmt.ColumnText(0)),
				Name: stmt.ColumnText(1),
				Kind: domain.ChannelKind(stmt.ColumnText(2)),
			})
			return nil
		},
	})
	return out, err
}

func (s *SQLiteStore) ListRooms(ctx context.Context) ([]domain.Room, error) {
	rooms := []domain.Room{}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `SELECT id, name FROM rooms ORDER BY seq`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rooms = append(rooms, domain.Room{ID: domain.RoomID(stmt.ColumnText(0)), Name: stmt.ColumnText(1)})
				return nil
			},
		})
		if err != nil {
			return err
		}
		for i := range rooms {
			if rooms[i].Channels, err = listChannels(conn, rooms[i].ID); err != nil {
				return err
			}
		}
		return nil
	})
	return rooms, err
}

func (s *SQLiteStore) Append(ctx context.Context, key domain.MessageKey, msg *domain.ChatMessage) error {
	atts, err := json.Marshal(msg.Attachments)
	if err != nil {
		return err
	}
	return s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO messages (room_id, channel_id, id, user_id, username, text, emoji, attachments, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{
				string(key.RoomID), string(key.ChannelID), string(msg.ID),
				string(msg.User.ID), msg.User.Username,
				msg.Text, msg.Emoji, string(atts), msg.CreatedAt.UnixNano(),
			},
		})
	})
}

func (s *SQLiteStore) List(ctx context.Context, key domain.MessageKey) ([]domain.ChatMessage, error) {
	out := []domain.ChatMessage{}
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT id, user_id, username, text, emoji, attachments, created_at
			FROM messages WHERE room_id = ? AND channel_id = ? ORDER BY seq`, &sqlitex.ExecOptions{
			Args: []any{string(key.RoomID), string(key.ChannelID)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				msg := domain.ChatMessage{
					ID:        domain.MessageID(stmt.ColumnText(0)),
					User:      domain.User{ID: domain.UserID(stmt.ColumnText(1)), Username: stmt.ColumnText(2)},
					Text:      stmt.ColumnText(3),
					Emoji:     stmt.ColumnText(4),
					CreatedAt: time.Unix(0, stmt.ColumnInt64(6)).UTC(),
				}
				if err := json.Unmarshal([]byte(stmt.ColumnText(5)), &msg.Attachments); err != nil {
					return fmt.Errorf("message %s attachments: %w", msg.ID, err)
				}
				out = append(out, msg)
				return nil
			},
		})
	})
	return out, err
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User, token string) error {
	return s.withConn(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return err
		}
		defer endTransaction(&err)

		if err := sqlitex.Execute(conn, `INSERT OR REPLACE INTO users (id, username) VALUES (?, ?)`, &sqlitex.ExecOptions{
			Args: []any{string(user.ID), user.Username},
		}); err != nil {
			return err
		}
		return sqlitex.Execute(conn, `INSERT INTO tokens (token, user_id) VALUES (?, ?)`, &sqlitex.ExecOptions{
			Args: []any{token, string(user.ID)},
		})
	})
}

func (s *SQLiteStore) Resolve(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, core.ErrUnauthenticated
	}
	var user *domain.User
	err := s.withConn(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			SELECT u.id, u.username FROM tokens t JOIN users u ON u.id = t.user_id
			WHERE t.token = ?`, &sqlitex.ExecOptions{
			Args: []any{token},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				user = &domain.User{ID: domain.UserID(stmt.ColumnText(0)), Username: stmt.ColumnText(1)}
				return nil
			},
		})
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, core.ErrUnauthenticated
	}
	return user, nil
}
