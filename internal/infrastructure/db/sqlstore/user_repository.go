package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/authsvc/auth-api/internal/core/domain"
)

const (
	findByEmailQuery = `SELECT id, username, email, password, created_at FROM users WHERE email = ?`
	insertUserQuery  = `INSERT INTO users (id, username, email, password, created_at) VALUES (?, ?, ?, ?, ?)`
)

const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

type UserRepository struct {
	db      *sql.DB
	dialect Dialect
	find    string
	insert  string
}

func NewUserRepository(db *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{
		db:      db,
		dialect: dialect,
		find:    rebind(dialect, findByEmailQuery),
		insert:  rebind(dialect, insertUserQuery),
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, r.find, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *UserRepository) Insert(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	created.ID = uuid.NewString()
	created.CreatedAt = user.CreatedAt.UTC()

	_, err := r.db.ExecContext(ctx, r.insert,
		created.ID, created.Username, created.Email, created.PasswordHash, created.CreatedAt)
	if err != nil {
		if r.isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) isUniqueViolation(err error) bool {
	switch r.dialect {
	case MySQL:
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
	case Postgres:
		var pe *pgconn.PgError
		return errors.As(err, &pe) && pe.Code == postgresUniqueViolate
	case SQLite:
		var se *sqlite.Error
		if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
