package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	authcore "github.com/mvasiliev/authcore"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Directory is a Postgres-backed user directory.
type Directory struct {
	db *sql.DB
}

// Open connects to Postgres, verifies the connection, and returns a
// Directory with conservative pool settings.
func Open(connStr string) (*Directory, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Directory{db: db}, nil
}

// NewDirectory wraps an existing database handle.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// EnsureSchema creates the users table if it does not exist.
func (d *Directory) EnsureSchema(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close releases the underlying connection pool.
func (d *Directory) Close() error {
	return d.db.Close()
}

// GetUserByIdentifier implements authcore.UserProvider. The identifier is
// matched against username and email; both namespaces share one uniqueness
// domain, so at most one row can match.
func (d *Directory) GetUserByIdentifier(ctx context.Context, identifier string) (authcore.UserRecord, error) {
	const query = `
	SELECT id, username, email, password_hash
	FROM users
	WHERE username = $1 OR email = $1;
	`
	return d.queryOne(ctx, query, identifier)
}

// GetUserByID implements authcore.UserProvider.
func (d *Directory) GetUserByID(ctx context.Context, identity string) (authcore.UserRecord, error) {
	const query = `
	SELECT id, username, email, password_hash
	FROM users
	WHERE id = $1;
	`
	return d.queryOne(ctx, query, identity)
}

// CreateUser implements authcore.UserProvider. A unique-constraint
// violation on username or email maps to authcore.ErrAccountExists.
func (d *Directory) CreateUser(ctx context.Context, input authcore.CreateUserInput) (authcore.UserRecord, error) {
	const query = `
	INSERT INTO users (id, username, email, password_hash)
	VALUES ($1, $2, $3, $4);
	`
	_, err := d.db.ExecContext(ctx, query, input.Identity, input.Username, input.Email, input.PasswordHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return authcore.UserRecord{}, authcore.ErrAccountExists
		}
		return authcore.UserRecord{}, fmt.Errorf("failed to create user: %v", err)
	}

	return authcore.UserRecord{
		Identity:     input.Identity,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: input.PasswordHash,
	}, nil
}

func (d *Directory) queryOne(ctx context.Context, query, arg string) (authcore.UserRecord, error) {
	var user authcore.UserRecord
	err := d.db.QueryRowContext(ctx, query, arg).Scan(
		&user.Identity,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	if err != nil {
		return authcore.UserRecord{}, fmt.Errorf("failed to get user: %v", err)
	}
	return user, nil
}
