package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/MrEthical07/linkauth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; the store never closes it.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the schema holding the users table (default "public").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("users: invalid schema identifier %q", schema)
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "public"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("users: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "users"}.Sanitize()
}

// Migrate creates the users table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL(s.table()))
	return err
}

func schemaSQL(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id UUID PRIMARY KEY,
  name VARCHAR(100) NOT NULL,
  email VARCHAR(255) NOT NULL,
  password TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),

  CONSTRAINT uq_users_email UNIQUE (email)
)`, table)
}

const userColumns = `id::text, name, email, password, created_at, updated_at`

func scanUser(row pgx.Row) (linkauth.User, bool, error) {
	var u linkauth.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return linkauth.User{}, false, nil
	}
	if err != nil {
		return linkauth.User{}, false, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, true, nil
}

// FindUserByID loads a user. An id that is not a UUID cannot exist and
// reports found=false without a round trip.
func (s *PostgresStore) FindUserByID(ctx context.Context, id string) (linkauth.User, bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return linkauth.User{}, false, nil
	}
	q := `SELECT ` + userColumns + ` FROM ` + s.table() + ` WHERE id = $1::uuid`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (linkauth.User, bool, error) {
	q := `SELECT ` + userColumns + ` FROM ` + s.table() + ` WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, q, NormalizeEmail(email)))
}

// CreateUser inserts a user under a fresh UUID.
func (s *PostgresStore) CreateUser(ctx context.Context, in NewUser) (linkauth.User, error) {
	in, err := in.normalized()
	if err != nil {
		return linkauth.User{}, err
	}

	q := `INSERT INTO ` + s.table() + ` (id, name, email, password)
VALUES ($1::uuid, $2, $3, $4)
RETURNING ` + userColumns

	u, _, err := scanUser(s.pool.QueryRow(ctx, q, uuid.NewString(), in.Name, in.Email, in.PasswordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return linkauth.User{}, ErrDuplicateEmail
		}
		return linkauth.User{}, err
	}
	return u, nil
}

// Ping acquires and releases one connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" // unique_violation
}
