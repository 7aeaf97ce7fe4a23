package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンの署名・構造・有効期限のいずれかが不正であることを表す。
// Decode が返すエラーはすべて errors.Is でこの値と一致する。
var ErrInvalidToken = errors.New("invalid token")

// Subject はトークンに埋め込まれる認証主体。
type Subject struct {
	// UserID はユーザーの一意識別子。
	UserID string
	// Username はユーザー名。sub クレームとして格納される。
	Username string
}

// Claims はトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// UserID は認証済みユーザーの一意識別子。
	UserID string `json:"user_id"`
}

// Config は Codec の構築に必要な設定。
type Config struct {
	// Secret はHMAC署名用の秘密鍵。
	Secret string
	// Algorithm は署名アルゴリズムの識別子（HS256, HS384, HS512）。
	Algorithm string
	// Lifetime はトークンの有効期間。
	Lifetime time.Duration
	// Issuer は iss クレームに設定する発行者名。空の場合は検証しない。
	Issuer string
	// Now は現在時刻を返す関数。nil の場合は time.Now を使う。
	Now func() time.Time
}

// Codec は署名付きの期限付きトークンを発行・検証する。
// 構築後は不変であり、複数のgoroutineから同時に利用できる。
type Codec struct {
	secret   []byte
	method   *jwt.SigningMethodHMAC
	lifetime time.Duration
	issuer   string
	now      func() time.Time
}

// NewCodec は設定からCodecを生成する。
// 署名アルゴリズムはHMAC系のみ受け付け、呼び出しごとの上書きはできない。
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("署名用シークレットが空です")
	}
	if cfg.Lifetime <= 0 {
		return nil, fmt.Errorf("トークンの有効期間が不正です: %s", cfg.Lifetime)
	}

	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("未対応の署名アルゴリズムです: %q", cfg.Algorithm)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{
		secret:   []byte(cfg.Secret),
		method:   method,
		lifetime: cfg.Lifetime,
		issuer:   cfg.Issuer,
		now:      now,
	}, nil
}

// Algorithm は署名アルゴリズムの識別子を返す。
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Lifetime はトークンの有効期間を返す。
func (c *Codec) Lifetime() time.Duration {
	return c.lifetime
}

// Issue は主体から署名付きトークンを生成する。
// 発行時刻は現在時刻、有効期限は現在時刻に有効期間を加えた時刻になる。
func (c *Codec) Issue(subject Subject) (string, error) {
	if subject.Username == "" {
		return "", errors.New("ユーザー名が空の主体にはトークンを発行できません")
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.Username,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
		UserID: subject.UserID,
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Decode はトークンの署名と有効期限を検証し、主体を返す。
// 現在時刻が有効期限と同じかそれ以降の場合も無効とみなす。
func (c *Codec) Decode(token string) (Subject, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return Subject{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Subject{}, ErrInvalidToken
	}

	return Subject{UserID: claims.UserID, Username: claims.Subject}, nil
}
