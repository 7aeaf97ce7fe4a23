package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// setRequiredEnv は本番環境で必須の環境変数を設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PASSWORD_SALT", "salt")
}

// TestLoad は環境変数からの設定読み込みを検証する。
// t.Setenv を使うため並列実行しない。
func TestLoad(t *testing.T) {
	t.Run("未設定の項目に既定値が使われること", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("Port = %q, want %q", cfg.Port, "8080")
		}
		if cfg.DatabaseURL != "sqlite:///data/identity.db" {
			t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
		}
		if cfg.JWTAlgorithm != "HS256" {
			t.Errorf("JWTAlgorithm = %q, want %q", cfg.JWTAlgorithm, "HS256")
		}
		if cfg.TokenLifetime() != time.Hour {
			t.Errorf("TokenLifetime() = %s, want %s", cfg.TokenLifetime(), time.Hour)
		}
		if cfg.JWTIssuer != "identity-service" {
			t.Errorf("JWTIssuer = %q", cfg.JWTIssuer)
		}
		if cfg.IsDevelopment() {
			t.Error("既定の実行環境が開発環境になっている")
		}
	})

	t.Run("環境変数の値が反映されること", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("PORT", "9090")
		t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/identity")
		t.Setenv("JWT_ALGORITHM", "HS512")
		t.Setenv("JWT_EXPIRE_SECONDS", "60")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, ,http://b.example")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("Port = %q, want %q", cfg.Port, "9090")
		}
		if cfg.DatabaseURL != "postgres://u:p@db:5432/identity" {
			t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
		}
		if cfg.JWTAlgorithm != "HS512" {
			t.Errorf("JWTAlgorithm = %q, want %q", cfg.JWTAlgorithm, "HS512")
		}
		if cfg.TokenLifetime() != time.Minute {
			t.Errorf("TokenLifetime() = %s, want %s", cfg.TokenLifetime(), time.Minute)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
		}
		want := []string{"http://a.example", "http://b.example"}
		if !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
			t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
		}
	})

	t.Run("本番環境でシークレットが無い場合エラーになること", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("PASSWORD_SALT", "")

		_, err := Load()
		if !errors.Is(err, ErrMissingSecret) {
			t.Errorf("error = %v, want ErrMissingSecret", err)
		}
		if !errors.Is(err, ErrMissingSalt) {
			t.Errorf("error = %v, want ErrMissingSalt", err)
		}
	})

	t.Run("開発環境ではシークレットとソルトに既定値が使われること", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDevelopment)
		t.Setenv("JWT_SECRET", "")
		t.Setenv("PASSWORD_SALT", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.JWTSecret == "" || cfg.PasswordSalt == "" {
			t.Error("開発環境の既定値が設定されていない")
		}
	})

	t.Run("設定ファイルの値より環境変数が優先されること", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "identity.yaml")
		content := "port: \"7070\"\njwt_secret: file-secret\npassword_salt: file-salt\njwt_issuer: file-issuer\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("設定ファイルの作成に失敗: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)
		t.Setenv("JWT_ISSUER", "env-issuer")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "7070" {
			t.Errorf("Port = %q, want %q", cfg.Port, "7070")
		}
		if cfg.JWTSecret != "file-secret" {
			t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "file-secret")
		}
		if cfg.JWTIssuer != "env-issuer" {
			t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "env-issuer")
		}
	})

	t.Run("存在しない設定ファイルはエラーになること", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

		if _, err := Load(); err == nil {
			t.Error("エラーが発生しなかった")
		}
	})
}

// TestValidate は設定値の検証を検証する。
func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Port:             "8080",
			DatabaseURL:      "sqlite://:memory:",
			JWTSecret:        "secret",
			JWTAlgorithm:     "HS256",
			JWTExpireSeconds: 3600,
			PasswordSalt:     "salt",
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "正しい設定はエラーにならないこと", modify: func(*Config) {}},
		{name: "有効期間が0の場合エラーになること", modify: func(c *Config) { c.JWTExpireSeconds = 0 }, wantErr: ErrInvalidLifetime},
		{name: "有効期間が負の場合エラーになること", modify: func(c *Config) { c.JWTExpireSeconds = -1 }, wantErr: ErrInvalidLifetime},
		{name: "シークレットが空の場合エラーになること", modify: func(c *Config) { c.JWTSecret = "" }, wantErr: ErrMissingSecret},
		{name: "ソルトが空の場合エラーになること", modify: func(c *Config) { c.PasswordSalt = "" }, wantErr: ErrMissingSalt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate()でエラーが発生: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
