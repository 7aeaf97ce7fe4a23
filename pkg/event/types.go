package event

import (
	"encoding/json"
	"time"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeUserRegistered はユーザーが登録されたことを表す。
	TypeUserRegistered Type = "UserRegistered"
	// TypeUserLoggedIn はユーザーがログインしてトークンが発行されたことを表す。
	TypeUserLoggedIn Type = "UserLoggedIn"
	// TypeLoginFailed はログインが拒否されたことを表す。
	TypeLoginFailed Type = "LoginFailed"
	// TypeProfileUpdated はプロフィールが更新されたことを表す。
	TypeProfileUpdated Type = "ProfileUpdated"
)

// Event はアカウントに対する操作を記録する不変の監査レコード。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Type はイベントの種類。
	Type Type `json:"type"`
	// Username は対象のユーザー名。
	Username string `json:"username"`
	// UserID は対象のユーザーID。未確定の場合は空。
	UserID string `json:"user_id,omitempty"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data,omitempty"`
	// OccurredAt はイベントが発生した日時。
	OccurredAt time.Time `json:"occurred_at"`
}

// LoginFailureReason はログインが拒否された理由。
// 監査ログにのみ記録し、利用者へのレスポンスには含めない。
type LoginFailureReason string

const (
	// ReasonUnknownUser はユーザーが存在しないことを表す。
	ReasonUnknownUser LoginFailureReason = "unknown_user"
	// ReasonPasswordMismatch はパスワードが一致しないことを表す。
	ReasonPasswordMismatch LoginFailureReason = "password_mismatch"
	// ReasonCorruptRecord はユーザーレコードにIDが無いことを表す。
	ReasonCorruptRecord LoginFailureReason = "corrupt_record"
	// ReasonInactive はアカウントが無効化されていることを表す。
	ReasonInactive LoginFailureReason = "inactive"
)

// LoginFailedData はLoginFailedイベントのデータ。
type LoginFailedData struct {
	// Reason は拒否した理由。
	Reason LoginFailureReason `json:"reason"`
}

// ProfileUpdatedData はProfileUpdatedイベントのデータ。
type ProfileUpdatedData struct {
	// Fields は更新されたフィールド名の一覧。値は記録しない。
	Fields []string `json:"fields"`
}
