package user

import "time"

// RoleUser は一般ユーザーのロール。
const RoleUser = "user"

// User はユーザーアカウント。
type User struct {
	// ID はユーザーの一意識別子（UUID）。
	ID string
	// Username はログインに使う一意なユーザー名。
	Username string
	// PasswordHash はソルト付きでハッシュ化したパスワード。
	PasswordHash string
	// Nickname は表示名。登録時はユーザー名と同じ値になる。
	Nickname *string
	// Email はメールアドレス。
	Email *string
	// AvatarURL はアバター画像のURL。
	AvatarURL *string
	// Role はユーザーのロール。
	Role string
	// IsActive はアカウントが有効かどうか。無効なユーザーはログインできない。
	IsActive bool
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は最終更新日時。
	UpdatedAt time.Time
}

// ProfileUpdate はプロフィールの部分更新。nil のフィールドは変更しない。
type ProfileUpdate struct {
	Nickname  *string
	Email     *string
	AvatarURL *string
	// UpdatedAt は更新日時として記録する時刻。
	UpdatedAt time.Time
}

// fields は更新対象のフィールド名を返す。
func (u ProfileUpdate) fields() []string {
	var names []string
	if u.Nickname != nil {
		names = append(names, "nickname")
	}
	if u.Email != nil {
		names = append(names, "email")
	}
	if u.AvatarURL != nil {
		names = append(names, "avatar_url")
	}
	return names
}
