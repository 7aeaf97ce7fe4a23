// ユーザー認証サービスのエントリポイント。
// ユーザー登録、ログインによるトークン発行、プロフィールの参照と更新を提供する。
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/identity/internal/config"
	"github.com/nao1215/identity/internal/user"
	"github.com/nao1215/identity/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("ユーザー認証サービスが異常終了しました", zap.Error(err))
		os.Exit(1)
	}
}

// run はサービスを組み立てて起動し、ctx がキャンセルされるまで待つ。
func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	app, err := user.NewApp(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("ユーザー認証サーバーの初期化に失敗: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			zl.Warn("終了処理に失敗", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	zl.Info("ユーザー認証サービスを起動します", zap.String("addr", addr))
	return app.Run(ctx, addr)
}
