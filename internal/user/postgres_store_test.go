package user

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

// newPostgresStoreWithMock はsqlmockを使うPostgresStoreを生成する。
func newPostgresStoreWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New()でエラーが発生: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("期待したクエリが実行されていない: %v", err)
		}
		_ = db.Close()
	})
	return NewPostgresStore(db), mock
}

var (
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,.*updated_at\)\s*VALUES\s*\(\$1,.*\$10\)$`
	selectQuery = `(?s)^SELECT\s+id,\s*username,.*updated_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
	updateQuery = `(?s)^UPDATE\s+users\s+SET\s+nickname\s*=\s*COALESCE\(\$1,\s*nickname\),.*WHERE\s+username\s*=\s*\$5\s+RETURNING\s+id,.*updated_at$`
)

// userColumns はsqlmockの結果行の列名。
var userColumns = []string{"id", "username", "password_hash", "nickname", "email", "avatar_url", "role", "is_active", "created_at", "updated_at"}

// TestPostgresStoreCreate はPostgreSQLへのユーザー保存を検証する。
func TestPostgresStoreCreate(t *testing.T) {
	t.Parallel()

	t.Run("ユーザーを保存できること", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		u := newStoredUser("3f0c8c1e-0000-4000-8000-000000000001", "alice")

		mock.ExpectExec(insertQuery).
			WithArgs(u.ID, "alice", "hash-alice", "alice", nil, nil, RoleUser, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		got, err := store.Create(context.Background(), u)
		if err != nil {
			t.Fatalf("Create()でエラーが発生: %v", err)
		}
		if got.ID != u.ID || got == u {
			t.Errorf("Create()の戻り値が保存内容の複製になっていない: %+v", got)
		}
	})

	t.Run("一意制約違反はErrDuplicateになること", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		mock.ExpectExec(insertQuery).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "users_username_key"})

		_, err := store.Create(context.Background(), newStoredUser("id-1", "alice"))
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("Create() error = %v, want ErrDuplicate", err)
		}
	})

	t.Run("その他のDBエラーはラップして返すこと", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		mock.ExpectExec(insertQuery).WillReturnError(errors.New("db down"))

		_, err := store.Create(context.Background(), newStoredUser("id-1", "alice"))
		if err == nil || !regexp.MustCompile(`ユーザーの保存に失敗: .*db down`).MatchString(err.Error()) {
			t.Errorf("ラップされたエラーが返されていない: %v", err)
		}
		if errors.Is(err, ErrDuplicate) {
			t.Error("一般的なエラーがErrDuplicateとして扱われた")
		}
	})
}

// TestPostgresStoreGetByUsername はPostgreSQLからのユーザー取得を検証する。
func TestPostgresStoreGetByUsername(t *testing.T) {
	t.Parallel()

	t.Run("ユーザーを取得できNULLの列はnilになること", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(userColumns).
			AddRow("id-alice", "alice", "hash", "alice", nil, nil, RoleUser, true, created, created)
		mock.ExpectQuery(selectQuery).WithArgs("alice").WillReturnRows(rows)

		got, err := store.GetByUsername(context.Background(), "alice")
		if err != nil {
			t.Fatalf("GetByUsername()でエラーが発生: %v", err)
		}
		if got.ID != "id-alice" || got.Username != "alice" || !got.IsActive {
			t.Errorf("取得したユーザー = %+v", got)
		}
		if got.Nickname == nil || *got.Nickname != "alice" {
			t.Errorf("Nickname = %v, want %q", got.Nickname, "alice")
		}
		if got.Email != nil || got.AvatarURL != nil {
			t.Error("NULLの列がnilになっていない")
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %s, want %s", got.CreatedAt, created)
		}
	})

	t.Run("行が無い場合はErrNotFoundになること", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		mock.ExpectQuery(selectQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := store.GetByUsername(context.Background(), "ghost")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByUsername() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("DBエラーはラップして返すこと", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		mock.ExpectQuery(selectQuery).WithArgs("alice").WillReturnError(errors.New("db err"))

		_, err := store.GetByUsername(context.Background(), "alice")
		if err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("GetByUsername() error = %v", err)
		}
	})
}

// TestPostgresStoreUpdateProfile はPostgreSQLでのプロフィール更新を検証する。
func TestPostgresStoreUpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("nilのフィールドはNULLとして渡され既存値が保たれること", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		email := "alice@example.com"
		updatedAt := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(userColumns).
			AddRow("id-alice", "alice", "hash", "alice", email, nil, RoleUser, true, updatedAt, updatedAt)
		mock.ExpectQuery(updateQuery).
			WithArgs(nil, email, nil, updatedAt, "alice").
			WillReturnRows(rows)

		got, err := store.UpdateProfile(context.Background(), "alice", ProfileUpdate{Email: &email, UpdatedAt: updatedAt})
		if err != nil {
			t.Fatalf("UpdateProfile()でエラーが発生: %v", err)
		}
		if got.Email == nil || *got.Email != email {
			t.Errorf("Email = %v, want %q", got.Email, email)
		}
		if got.Nickname == nil || *got.Nickname != "alice" {
			t.Errorf("Nickname = %v, want %q", got.Nickname, "alice")
		}
	})

	t.Run("存在しないユーザーはErrNotFoundになること", func(t *testing.T) {
		t.Parallel()

		store, mock := newPostgresStoreWithMock(t)
		mock.ExpectQuery(updateQuery).WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := store.UpdateProfile(context.Background(), "ghost", ProfileUpdate{UpdatedAt: time.Now()})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateProfile() error = %v, want ErrNotFound", err)
		}
	})
}
