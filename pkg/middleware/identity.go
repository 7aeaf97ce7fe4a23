package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/identity/pkg/auth"
)

// ResolveSubject はリクエストの呼び出し元の主体を返す。
//
// 認証ゲートが設定した主体があればそれを返す。無い場合（ゲートの対象外のルート）は
// Authorizationヘッダーのトークンを自前で検証し、結果をこのリクエストのコンテキストに設定する。
// どちらからも主体が得られない場合は auth.ErrInvalidToken を返す。
func ResolveSubject(c *gin.Context, dec Decoder) (auth.Subject, error) {
	if subject, ok := GetSubject(c); ok {
		return subject, nil
	}

	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return auth.Subject{}, fmt.Errorf("%w: Bearerトークンがありません", auth.ErrInvalidToken)
	}

	subject, err := safeDecode(dec, token)
	if err != nil {
		return auth.Subject{}, err
	}

	attachSubject(c, subject)
	return subject, nil
}
