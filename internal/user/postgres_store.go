package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const pgUniqueViolation = "23505"

// postgresColumns はSELECTとRETURNINGで共有する列の並び。
const postgresColumns = `id, username, password_hash, nickname, email, avatar_url, role, is_active, created_at, updated_at`

// DBTX は *sql.DB と *sql.Tx の共通インターフェース。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore はPostgreSQLを使った Store の実装。
type PostgresStore struct {
	db DBTX
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore はPostgresStoreを生成する。
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create はユーザーを保存する。
func (s *PostgresStore) Create(ctx context.Context, u *User) (*User, error) {
	query := `INSERT INTO users (` + postgresColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Username, u.PasswordHash, u.Nickname, u.Email, u.AvatarURL,
		u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("ユーザーの保存に失敗: %w", err)
	}

	created := *u
	return &created, nil
}

// GetByUsername はユーザー名でユーザーを取得する。
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + postgresColumns + ` FROM users WHERE username = $1`
	return scanPostgresUser(s.db.QueryRowContext(ctx, query, username))
}

// UpdateProfile はnilでないフィールドだけを更新する。
func (s *PostgresStore) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*User, error) {
	query := `UPDATE users SET
			nickname   = COALESCE($1, nickname),
			email      = COALESCE($2, email),
			avatar_url = COALESCE($3, avatar_url),
			updated_at = $4
		WHERE username = $5
		RETURNING ` + postgresColumns

	row := s.db.QueryRowContext(ctx, query,
		update.Nickname, update.Email, update.AvatarURL, update.UpdatedAt, username)
	return scanPostgresUser(row)
}

// scanPostgresUser は1行をUserに変換する。
func scanPostgresUser(sc scanner) (*User, error) {
	var u User
	err := sc.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.Email, &u.AvatarURL,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ユーザー行の読み取りに失敗: %w", err)
	}
	return &u, nil
}

// isPgUniqueViolation はPostgreSQLの一意制約違反かどうかを判定する。
func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
