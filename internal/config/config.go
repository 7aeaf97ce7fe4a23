// Package config は環境変数と設定ファイルからサービスの設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvDevelopment は開発環境を表すAPP_ENVの値。
const EnvDevelopment = "development"

// 開発環境でのみ使われる既定値。本番では必ず環境変数で与える。
const (
	developmentSecret = "development-only-jwt-secret"
	developmentSalt   = "development-only-password-salt"
)

var (
	// ErrMissingSecret はJWT_SECRETが設定されていないことを表す。
	ErrMissingSecret = errors.New("JWT_SECRET が設定されていません")
	// ErrMissingSalt はPASSWORD_SALTが設定されていないことを表す。
	ErrMissingSalt = errors.New("PASSWORD_SALT が設定されていません")
	// ErrInvalidLifetime はJWT_EXPIRE_SECONDSが正の値でないことを表す。
	ErrInvalidLifetime = errors.New("JWT_EXPIRE_SECONDS は正の値である必要があります")
)

// Config はサービスの設定値。
type Config struct {
	// Port はHTTPサーバーの待ち受けポート。
	Port string
	// DatabaseURL はユーザーストアの接続文字列。
	DatabaseURL string
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// JWTAlgorithm はトークンの署名アルゴリズム。
	JWTAlgorithm string
	// JWTExpireSeconds はトークンの有効期間（秒）。
	JWTExpireSeconds int
	// JWTIssuer はトークンの発行者名。
	JWTIssuer string
	// PasswordSalt はパスワードハッシュ用のサーバー側ソルト。
	PasswordSalt string
	// LogLevel はログレベル。
	LogLevel string
	// CORSAllowedOrigins はCORSで許可するオリジンの一覧。
	CORSAllowedOrigins []string
	// AppEnv は実行環境名。
	AppEnv string
}

// Load は環境変数（CONFIG_FILEが指定されていればその設定ファイルも）から設定を読み込み、検証する。
// 環境変数は設定ファイルの値より優先される。
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "sqlite:///data/identity.db")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("JWT_EXPIRE_SECONDS", 3600)
	v.SetDefault("JWT_ISSUER", "identity-service")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "production")
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("設定ファイル %s の読み込みに失敗: %w", path, err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		JWTAlgorithm:       v.GetString("JWT_ALGORITHM"),
		JWTExpireSeconds:   v.GetInt("JWT_EXPIRE_SECONDS"),
		JWTIssuer:          v.GetString("JWT_ISSUER"),
		PasswordSalt:       v.GetString("PASSWORD_SALT"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		AppEnv:             v.GetString("APP_ENV"),
	}

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = developmentSecret
		}
		if cfg.PasswordSalt == "" {
			cfg.PasswordSalt = developmentSalt
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は設定値の整合性を検証する。
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingSecret)
	}
	if c.PasswordSalt == "" {
		errs = append(errs, ErrMissingSalt)
	}
	if c.JWTExpireSeconds <= 0 {
		errs = append(errs, ErrInvalidLifetime)
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT が空です"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL が空です"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}
	return nil
}

// IsDevelopment は開発環境かどうかを返す。
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// TokenLifetime はトークンの有効期間を返す。
func (c *Config) TokenLifetime() time.Duration {
	return time.Duration(c.JWTExpireSeconds) * time.Second
}

// splitList はカンマ区切りの文字列を空要素を除いたスライスに変換する。
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
