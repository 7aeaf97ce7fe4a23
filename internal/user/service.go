package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/identity/pkg/apperror"
	"github.com/nao1215/identity/pkg/auth"
	"github.com/nao1215/identity/pkg/event"
	"go.uber.org/zap"
)

// 利用者向けのエラーメッセージ。
const (
	msgUserExists         = "User already exists"
	msgCreateFailed       = "Create user failed"
	msgInvalidCredentials = "Invalid credentials"
	msgLoginFailed        = "Login failed"
	msgUserNotFound       = "User not found"
	msgProfileFailed      = "Profile lookup failed"
	msgUpdateFailed       = "Update profile failed"
)

// TokenIssuer は認証済みの主体に対してトークンを発行する。
type TokenIssuer interface {
	Issue(subject auth.Subject) (string, error)
}

// Service はユーザーに関する業務ロジックを提供する。
// 返すエラーは *apperror.Error で、ステータスコードと利用者向けメッセージを持つ。
type Service struct {
	store     Store
	hasher    PasswordHasher
	tokens    TokenIssuer
	publisher event.Publisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService はServiceを生成する。
func NewService(store Store, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		publisher: event.Discard,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// SetPublisher は監査イベントの送出先を設定する。nil の場合は破棄する。
func (s *Service) SetPublisher(p event.Publisher) {
	if p == nil {
		p = event.Discard
	}
	s.publisher = p
}

// Register は新しいユーザーを登録する。
// 表示名はユーザー名、ロールは一般ユーザー、アカウントは有効な状態で作成される。
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	_, err := s.store.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperror.Conflict(msgUserExists)
	case !errors.Is(err, ErrNotFound):
		s.logger.Error("ユーザーの存在確認に失敗", zap.String("username", username), zap.Error(err))
		return nil, apperror.Internal(msgCreateFailed)
	}

	now := s.now().UTC()
	nickname := username
	created, err := s.store.Create(ctx, &User{
		ID:           s.newID(),
		Username:     username,
		PasswordHash: s.hasher.Hash(password),
		Nickname:     &nickname,
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// 存在確認と保存の間に同じユーザー名が登録された場合
		if errors.Is(err, ErrDuplicate) {
			return nil, apperror.Conflict(msgUserExists)
		}
		s.logger.Error("ユーザーの作成に失敗", zap.String("username", username), zap.Error(err))
		return nil, apperror.Internal(msgCreateFailed)
	}
	if created == nil || created.ID == "" {
		s.logger.Error("作成したユーザーにIDがありません", zap.String("username", username))
		return nil, apperror.Internal(msgCreateFailed)
	}

	s.logger.Info("ユーザーを登録しました", zap.String("user_id", created.ID), zap.String("username", created.Username))
	s.publish(ctx, event.TypeUserRegistered, created.Username, created.ID, nil)
	return created, nil
}

// Login は資格情報を検証してトークンを発行する。
// ユーザーが存在しない、パスワードが一致しない、IDが無い、無効化されている場合は
// いずれも同じ401エラーを返し、どの条件で失敗したかを区別させない。
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("ユーザーの取得に失敗", zap.String("username", username), zap.Error(err))
		return "", apperror.Internal(msgLoginFailed)
	}

	// ユーザーが存在しない場合もハッシュ計算は行う
	passwordOK := s.hasher.Verify(password, passwordHashOf(u))
	if reason, ok := loginFailure(u, passwordOK); ok {
		s.publish(ctx, event.TypeLoginFailed, username, userIDOf(u), event.LoginFailedData{Reason: reason})
		return "", apperror.Unauthorized(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(auth.Subject{UserID: u.ID, Username: u.Username})
	if err != nil {
		s.logger.Error("トークンの発行に失敗", zap.String("username", username), zap.Error(err))
		return "", apperror.Internal(msgLoginFailed)
	}
	s.publish(ctx, event.TypeUserLoggedIn, u.Username, u.ID, nil)
	return token, nil
}

// GetProfile はユーザーのプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, username string) (*User, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		s.logger.Error("プロフィールの取得に失敗", zap.String("username", username), zap.Error(err))
		return nil, apperror.Internal(msgProfileFailed)
	}
	return u, nil
}

// UpdateProfile はnilでないフィールドだけを更新し、更新日時を現在時刻にする。
func (s *Service) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*User, error) {
	update.UpdatedAt = s.now().UTC()

	u, err := s.store.UpdateProfile(ctx, username, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NotFound(msgUserNotFound)
		}
		s.logger.Error("プロフィールの更新に失敗", zap.String("username", username), zap.Error(err))
		return nil, apperror.Internal(msgUpdateFailed)
	}
	s.publish(ctx, event.TypeProfileUpdated, u.Username, u.ID, event.ProfileUpdatedData{Fields: update.fields()})
	return u, nil
}

// publish は監査イベントを送出する。送出の失敗は記録するだけで操作の結果には影響しない。
func (s *Service) publish(ctx context.Context, eventType event.Type, username, userID string, data any) {
	ev, err := event.New(eventType, username, userID, s.now(), data)
	if err == nil {
		err = s.publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Warn("監査イベントの送出に失敗",
			zap.String("event_type", string(eventType)),
			zap.String("username", username),
			zap.Error(err),
		)
	}
}

// loginFailure はログインを拒否する理由を返す。拒否しない場合は false。
func loginFailure(u *User, passwordOK bool) (event.LoginFailureReason, bool) {
	switch {
	case u == nil:
		return event.ReasonUnknownUser, true
	case !passwordOK:
		return event.ReasonPasswordMismatch, true
	case u.ID == "":
		return event.ReasonCorruptRecord, true
	case !u.IsActive:
		return event.ReasonInactive, true
	}
	return "", false
}

func userIDOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

// passwordHashOf はユーザーのパスワードハッシュを返す。ユーザーがnilの場合は空文字列。
func passwordHashOf(u *User) string {
	if u == nil {
		return ""
	}
	return u.PasswordHash
}
