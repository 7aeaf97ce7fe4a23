// Package apperror はステータスコード付きの業務エラーを提供する。
//
// ビジネスロジックは Error を返し、HTTPの境界層で Respond によって
// 同じステータスコードと {"detail": メッセージ} 形式のJSONに変換する。
package apperror

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error はHTTPステータスコードと利用者向けメッセージを持つ業務エラー。
type Error struct {
	// Status はHTTPステータスコード。
	Status int
	// Message は利用者向けのメッセージ。レスポンスボディにそのまま出力される。
	Message string
}

// Error はエラーメッセージを返す。
func (e *Error) Error() string {
	return e.Message
}

// BadRequest は400エラーを生成する。
func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Unauthorized は401エラーを生成する。
func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// Forbidden は403エラーを生成する。
func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

// NotFound は404エラーを生成する。
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Conflict は409エラーを生成する。
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}

// Internal は500エラーを生成する。
func Internal(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg}
}

// As はエラーチェーンから *Error を取り出す。
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Body はエラーレスポンスのJSONボディを生成する。
func Body(msg string) gin.H {
	return gin.H{"detail": msg}
}

// Respond はエラーをHTTPレスポンスに変換してリクエスト処理を中断する。
// *Error 以外のエラーは変換せず、ginの既定動作（本文なしの500）に委ねる。
func Respond(c *gin.Context, err error) {
	if appErr, ok := As(err); ok {
		c.AbortWithStatusJSON(appErr.Status, Body(appErr.Message))
		return
	}
	_ = c.AbortWithError(http.StatusInternalServerError, err)
}
