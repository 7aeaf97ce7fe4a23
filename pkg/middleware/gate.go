package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/identity/pkg/apperror"
	"github.com/nao1215/identity/pkg/auth"
)

const (
	// MessageUnauthorized はAuthorizationヘッダーが無い、または形式が不正な場合のメッセージ。
	MessageUnauthorized = "Unauthorized"
	// MessageInvalidToken はトークンの検証に失敗した場合のメッセージ。
	MessageInvalidToken = "Invalid token"
)

// contextKeySubject はGinコンテキストに主体を格納するためのキー。
const contextKeySubject = "subject"

// bearerPrefix はAuthorizationヘッダーのスキーム接頭辞。
const bearerPrefix = "Bearer "

// Decoder はトークンを検証して主体を返す。
type Decoder interface {
	Decode(token string) (auth.Subject, error)
}

// ExemptionSet は認証を免除するルートパスの集合。
type ExemptionSet interface {
	Contains(path string) bool
}

// GateOutcome は認証ゲートの判定結果。
type GateOutcome string

const (
	// OutcomeExempt は免除ルートとして素通りしたことを表す。
	OutcomeExempt GateOutcome = "exempt"
	// OutcomeMissingCredentials はBearerトークンが無い、または形式が不正だったことを表す。
	OutcomeMissingCredentials GateOutcome = "missing_credentials"
	// OutcomeInvalidToken はトークンの検証に失敗したことを表す。
	OutcomeInvalidToken GateOutcome = "invalid_token"
	// OutcomeAuthenticated は認証に成功したことを表す。
	OutcomeAuthenticated GateOutcome = "authenticated"
)

// GateObserver は認証ゲートの判定結果を受け取る。
type GateObserver interface {
	ObserveGate(outcome GateOutcome)
}

// Authenticate はBearerトークンを検証するGinミドルウェアを返す。
//
// 免除ルートはそのまま次のハンドラに渡す。それ以外はAuthorizationヘッダーの
// Bearerトークンを検証し、成功した場合は主体をリクエストコンテキストに設定する。
// 失敗した場合は401を返してハンドラを実行しない。
func Authenticate(dec Decoder, exempt ExemptionSet, obs GateObserver) gin.HandlerFunc {
	observe := func(outcome GateOutcome) {
		if obs != nil {
			obs.ObserveGate(outcome)
		}
	}

	return func(c *gin.Context) {
		if exempt != nil && exempt.Contains(routePath(c)) {
			observe(OutcomeExempt)
			c.Next()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			observe(OutcomeMissingCredentials)
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.Body(MessageUnauthorized))
			return
		}

		subject, err := safeDecode(dec, token)
		if err != nil {
			observe(OutcomeInvalidToken)
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperror.Body(MessageInvalidToken))
			return
		}

		observe(OutcomeAuthenticated)
		attachSubject(c, subject)
		c.Next()
	}
}

// GetSubject はGinコンテキストから認証済みの主体を取得する。
// Authenticateミドルウェアか ResolveSubject が事前に実行されている必要がある。
func GetSubject(c *gin.Context) (auth.Subject, bool) {
	if c.Request != nil {
		if subject, ok := auth.SubjectFromContext(c.Request.Context()); ok {
			return subject, true
		}
	}
	v, ok := c.Get(contextKeySubject)
	if !ok {
		return auth.Subject{}, false
	}
	subject, ok := v.(auth.Subject)
	if !ok || subject.Username == "" {
		return auth.Subject{}, false
	}
	return subject, true
}

// routePath は免除判定に使うルートパスを返す。
// ルートに一致した場合はルート定義上のパス、一致しない場合はリクエストURLのパスを使う。
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// bearerToken はAuthorizationヘッダーからトークン部分を取り出す。
func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, bearerPrefix)
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// safeDecode はデコード中のパニックも検証失敗として扱う。
func safeDecode(dec Decoder, token string) (subject auth.Subject, err error) {
	defer func() {
		if r := recover(); r != nil {
			subject = auth.Subject{}
			err = fmt.Errorf("%w: デコード中にパニックが発生: %v", auth.ErrInvalidToken, r)
		}
	}()

	subject, err = dec.Decode(token)
	if err != nil {
		return auth.Subject{}, err
	}
	if subject.Username == "" {
		return auth.Subject{}, auth.ErrInvalidToken
	}
	return subject, nil
}

// attachSubject は主体をリクエストコンテキストとGinコンテキストの両方に設定する。
func attachSubject(c *gin.Context, subject auth.Subject) {
	c.Request = c.Request.WithContext(auth.WithSubject(c.Request.Context(), subject))
	c.Set(contextKeySubject, subject)
}
