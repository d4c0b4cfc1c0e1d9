package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/giladwin/chat/internal/models"
)

type RoomRepository interface {
	CreateRoom(ctx context.Context, name string) error
	RoomExists(ctx context.Context, name string) (bool, error)
	GetRoom(ctx context.Context, name string) (*models.Room, error)
	ListRooms(ctx context.Context) ([]models.RoomSummary, error)
	GetMessages(ctx context.Context, name string) ([]models.Message, error)
	AppendMessage(ctx context.Context, name string, msg *models.Message) error
	AddMember(ctx context.Context, name, username string) error
	RemoveMember(ctx context.Context, name, username string) error
}

type PostgresRoomRepo struct {
	pool *pgxpool.Pool
}

func NewRoomRepo(pool *pgxpool.Pool) RoomRepository {
	return &PostgresRoomRepo{pool: pool}
}

func (r *PostgresRoomRepo) CreateRoom(ctx context.Context, name string) error {
	const query = `INSERT INTO rooms (name) VALUES ($1)`

	if _, err := r.pool.Exec(ctx, query, name); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRoom
		}
		return fmt.Errorf("failed to insert room: %w", err)
	}
	return nil
}

func (r *PostgresRoomRepo) RoomExists(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM rooms WHERE name = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check room existence: %w", err)
	}
	return exists, nil
}

// GetRoom returns the room and its member list. The primary key on
// (room_name, username) keeps the stored membership de-duplicated.
func (r *PostgresRoomRepo) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	exists, err := r.RoomExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	const query = `
		SELECT username FROM room_members
		WHERE room_name = $1
		ORDER BY joined_at ASC`

	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list room members: %w", err)
	}
	defer rows.Close()

	room := &models.Room{Name: name, Users: []string{}}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		room.Users = append(room.Users, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read members: %w", err)
	}

	return room, nil
}

// ListRooms returns every room with its distinct member count, sorted
// descending by count. Ties keep creation order.
func (r *PostgresRoomRepo) ListRooms(ctx context.Context) ([]models.RoomSummary, error) {
	const query = `
		SELECT r.name, count(m.username) AS users
		FROM rooms r
		LEFT JOIN room_members m ON m.room_name = r.name
		GROUP BY r.id, r.name
		ORDER BY users DESC, r.id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	summaries := []models.RoomSummary{}
	for rows.Next() {
		var s models.RoomSummary
		if err := rows.Scan(&s.Name, &s.Users); err != nil {
			return nil, fmt.Errorf("failed to scan room summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rooms: %w", err)
	}

	return summaries, nil
}

func (r *PostgresRoomRepo) GetMessages(ctx context.Context, name string) ([]models.Message, error) {
	exists, err := r.RoomExists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	const query = `
		SELECT id, ts, body, COALESCE(username, '')
		FROM messages
		WHERE room_name = $1
		ORDER BY ts ASC`

	rows, err := r.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.TS, &m.Text, &m.Username); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	return messages, nil
}

func (r *PostgresRoomRepo) AppendMessage(ctx context.Context, name string, msg *models.Message) error {
	const query = `
		INSERT INTO messages (id, room_name, username, body, ts)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, msg.ID, name, msg.Username, msg.Text, msg.TS); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *PostgresRoomRepo) AddMember(ctx context.Context, name, username string) error {
	const query = `
		INSERT INTO room_members (room_name, username)
		VALUES ($1, $2)
		ON CONFLICT (room_name, username) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, name, username); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (r *PostgresRoomRepo) RemoveMember(ctx context.Context, name, username string) error {
	const query = `DELETE FROM room_members WHERE room_name = $1 AND username = $2`

	if _, err := r.pool.Exec(ctx, query, name, username); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}
