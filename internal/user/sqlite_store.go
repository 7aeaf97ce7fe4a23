package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// sqliteColumns はSELECTとRETURNINGで共有する列の並び。
const sqliteColumns = `id, username, password_hash, nickname, email, avatar_url, role, is_active, created_at, updated_at`

// SQLiteStore はSQLiteを使った Store の実装。
// 日時はRFC3339形式（UTC）の文字列として保存する。
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore はSQLiteStoreを生成する。スキーマはマイグレーション済みである必要がある。
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create はユーザーを保存する。
func (s *SQLiteStore) Create(ctx context.Context, u *User) (*User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+sqliteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Nickname, u.Email, u.AvatarURL,
		u.Role, u.IsActive, formatTime(u.CreatedAt), formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("ユーザーの保存に失敗: %w", err)
	}

	created := *u
	return &created, nil
}

// GetByUsername はユーザー名でユーザーを取得する。
func (s *SQLiteStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM users WHERE username = ?`, username)
	return scanSQLiteUser(row)
}

// UpdateProfile はnilでないフィールドだけを更新する。
func (s *SQLiteStore) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users SET
			nickname   = COALESCE(?, nickname),
			email      = COALESCE(?, email),
			avatar_url = COALESCE(?, avatar_url),
			updated_at = ?
		WHERE username = ?
		RETURNING `+sqliteColumns,
		update.Nickname, update.Email, update.AvatarURL, formatTime(update.UpdatedAt), username,
	)
	return scanSQLiteUser(row)
}

// scanSQLiteUser は1行をUserに変換する。
func scanSQLiteUser(sc scanner) (*User, error) {
	var (
		u                    User
		createdAt, updatedAt string
	)
	err := sc.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.Email, &u.AvatarURL,
		&u.Role, &u.IsActive, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ユーザー行の読み取りに失敗: %w", err)
	}

	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("created_atの解析に失敗: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("updated_atの解析に失敗: %w", err)
	}
	return &u, nil
}

// formatTime は日時を保存用の文字列に変換する。
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// isSQLiteUniqueViolation はSQLiteの一意制約違反かどうかを判定する。
func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
