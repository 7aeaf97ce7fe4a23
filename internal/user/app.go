package user

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/identity/internal/config"
	"github.com/nao1215/identity/pkg/auth"
	"github.com/nao1215/identity/pkg/event"
	"github.com/nao1215/identity/pkg/middleware"
	"github.com/nao1215/identity/pkg/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App は組み立て済みのユーザーサービス。
type App struct {
	// Router は認証ゲートを適用した構築済みのHTTPハンドラー。
	Router *router.Router
	// db はユーザーストアのデータベース。
	db *DB
}

// NewApp は設定からデータベース、トークン、ルートを組み立ててユーザーサービスを生成する。
// ルートの登録はここで完了し、返される Router には追加できない。
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	codec, err := auth.NewCodec(auth.Config{
		Secret:    cfg.JWTSecret,
		Algorithm: cfg.JWTAlgorithm,
		Lifetime:  cfg.TokenLifetime(),
		Issuer:    cfg.JWTIssuer,
	})
	if err != nil {
		return nil, fmt.Errorf("トークン設定が不正です: %w", err)
	}

	db, err := Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("ユーザーストアの初期化に失敗: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	service := NewService(db, NewArgon2Hasher(cfg.PasswordSalt), codec, logger)
	service.SetPublisher(event.NewLogPublisher(logger))
	server := NewServer(service, codec, db, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), logger)

	b := router.NewBuilder(func(exempt middleware.ExemptionSet) gin.HandlerFunc {
		return middleware.Authenticate(codec, exempt, metrics)
	})
	b.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		metrics.Handler(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)
	for _, r := range server.Routes() {
		b.Handle(r)
	}
	built := b.Build()

	logger.Info("ルートを構築しました",
		zap.Int("routes", len(built.Routes())),
		zap.Strings("exempt", built.Exemptions().Paths()),
		zap.String("algorithm", codec.Algorithm()),
		zap.Duration("token_lifetime", codec.Lifetime()),
	)

	return &App{Router: built, db: db}, nil
}

// Run はHTTPサーバーを起動し、ctx がキャンセルされるまで処理を続ける。
func (a *App) Run(ctx context.Context, addr string) error {
	return a.Router.Run(ctx, addr)
}

// Close はデータベース接続を閉じる。
func (a *App) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("データベース接続のクローズに失敗: %w", err)
	}
	return nil
}
