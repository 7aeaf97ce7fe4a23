package user

import (
	"context"
	"errors"
)

var (
	// ErrNotFound はユーザーが存在しないことを表す。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate はユーザー名が既に使われていることを表す。
	ErrDuplicate = errors.New("user already exists")
)

// Store はユーザーの永続化を担う。
type Store interface {
	// Create はユーザーを保存して返す。ユーザー名が重複する場合は ErrDuplicate を返す。
	Create(ctx context.Context, u *User) (*User, error)
	// GetByUsername はユーザー名でユーザーを取得する。存在しない場合は ErrNotFound を返す。
	GetByUsername(ctx context.Context, username string) (*User, error)
	// UpdateProfile はプロフィールを部分更新して更新後のユーザーを返す。
	// 存在しない場合は ErrNotFound を返す。
	UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*User, error)
}

// scanner は *sql.Row と *sql.Rows の共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}
