package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 10 * time.Second

var _ http.Handler = (*Router)(nil)

// Router は構築済みのHTTPハンドラー。
// ルートの追加はできず、複数のgoroutineから同時に利用できる。
type Router struct {
	engine *gin.Engine
	exempt *Exemptions
	routes []Route
}

// ServeHTTP はリクエストを処理する。
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

// Exemptions は認証を免除するパスの集合を返す。
func (r *Router) Exemptions() *Exemptions {
	return r.exempt
}

// Routes は宣言されたルート定義の複製を返す。
func (r *Router) Routes() []Route {
	return slices.Clone(r.routes)
}

// Server は指定アドレスで待ち受ける http.Server を返す。
func (r *Router) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run はHTTPサーバーを起動し、ctx がキャンセルされるとグレースフルにシャットダウンする。
func (r *Router) Run(ctx context.Context, addr string) error {
	srv := r.Server(addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーのシャットダウンに失敗: %w", err)
	}
	return nil
}
