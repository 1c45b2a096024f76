package db

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"minichat/internal/app/chat"
	"minichat/internal/pkg/randx"
)

// User is the full account record as stored in the users table.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Profile      string
	AvatarKey    string
	CreatedAt    time.Time
	LastLoginAt  pgtype.Timestamptz
}

// Store provides all database queries. It also implements the Broker's
// MessageStore collaborator.
type Store struct {
	pool *pgxpool.Pool

	// stampMu guards lastStamp so message timestamps are non-decreasing
	// across concurrent persistence calls.
	stampMu   sync.Mutex
	lastStamp time.Time
}

// NewStore constructs a Store on top of an initialized connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const userColumns = `id::text, username, password_hash, profile, avatar_key, created_at, last_login_at`

// CreateUser inserts a new account and returns the stored record.
// A taken username surfaces as a unique violation (see IsUniqueViolation).
func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		randx.UserID(), username, passwordHash,
	)

	return scanUser(row)
}

// GetUserByUsername fetches the account with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = $1`,
		username,
	)

	return scanUser(row)
}

// GetUserByID fetches the account with the given ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1`,
		id,
	)

	return scanUser(row)
}

// UpdateProfile replaces the profile text and avatar key of the given account.
func (s *Store) UpdateProfile(ctx context.Context, id, profile, avatarKey string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET profile = $2, avatar_key = $3
		WHERE id = $1`,
		id, profile, avatarKey,
	)

	return err
}

// UpdateLastLogin stamps the account's last_login_at with the current time.
func (s *Store) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET last_login_at = now()
		WHERE id = $1`,
		id,
	)

	return err
}

// SaveMessage durably records a chat message, assigning its MessageID and
// timestamp. Implements chat.MessageStore. An empty receiver is stored as
// NULL; it is recorded for future filtering but does not affect delivery.
func (s *Store) SaveMessage(ctx context.Context, senderID, receiverID, body string) (chat.StoredMessage, error) {
	stored := chat.StoredMessage{
		ID:         randx.MessageID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		Timestamp:  s.nextTimestamp(),
	}

	var receiver any
	if receiverID != "" {
		receiver = receiverID
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		stored.ID, stored.SenderID, receiver, stored.Body, stored.Timestamp,
	)
	if err != nil {
		return chat.StoredMessage{}, err
	}

	return stored, nil
}

// nextTimestamp returns the current UTC time, clamped so that successive
// persistence calls never observe a decreasing timestamp.
func (s *Store) nextTimestamp() time.Time {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()

	now := time.Now().UTC()
	if now.Before(s.lastStamp) {
		now = s.lastStamp
	}
	s.lastStamp = now

	return now
}

// rowScanner is satisfied by pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Profile,
		&u.AvatarKey,
		&u.CreatedAt,
		&u.LastLoginAt,
	)
	if err != nil {
		return User{}, err
	}

	return u, nil
}
