package user

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/identity/pkg/apperror"
	"github.com/nao1215/identity/pkg/middleware"
	"github.com/nao1215/identity/pkg/router"
	"go.uber.org/zap"
)

// HealthChecker はデータベースの疎通を確認する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Server はユーザーサービスのHTTPハンドラー群。
type Server struct {
	// service はユーザーの業務ロジック。
	service *Service
	// decoder は呼び出し元の主体を解決するためのトークン検証器。
	decoder middleware.Decoder
	// health はヘルスチェックで疎通を確認する対象。
	health HealthChecker
	// metrics はPrometheusのエクスポジションハンドラー。
	metrics http.Handler
	// logger はハンドラーのロガー。
	logger *zap.Logger
}

// NewServer は新しいユーザーサーバーを生成する。
func NewServer(service *Service, decoder middleware.Decoder, health HealthChecker, metrics http.Handler, logger *zap.Logger) *Server {
	return &Server{
		service: service,
		decoder: decoder,
		health:  health,
		metrics: metrics,
		logger:  logger,
	}
}

// Routes はユーザーサービスのルート定義を返す。
// 登録とログイン、ヘルスチェック、メトリクスは認証不要のルートとして宣言する。
func (s *Server) Routes() []router.Route {
	return []router.Route{
		// ユーザー登録
		{Method: http.MethodPost, Path: "/user/register", RequiresAuth: false, Handlers: []gin.HandlerFunc{s.handleRegister()}},
		// ログイン
		{Method: http.MethodPost, Path: "/user/login", RequiresAuth: false, Handlers: []gin.HandlerFunc{s.handleLogin()}},
		// 自分のユーザー名
		{Method: http.MethodGet, Path: "/user/whoami", RequiresAuth: true, Handlers: []gin.HandlerFunc{s.handleWhoAmI()}},
		// 自分のプロフィール取得
		{Method: http.MethodGet, Path: "/user/me", RequiresAuth: true, Handlers: []gin.HandlerFunc{s.handleGetMe()}},
		// 自分のプロフィール更新
		{Method: http.MethodPatch, Path: "/user/me", RequiresAuth: true, Handlers: []gin.HandlerFunc{s.handleUpdateMe()}},
		// ヘルスチェック
		{Method: http.MethodGet, Path: "/health", RequiresAuth: false, Handlers: []gin.HandlerFunc{s.handleHealth()}},
		// メトリクス
		{Method: http.MethodGet, Path: "/metrics", RequiresAuth: false, Handlers: []gin.HandlerFunc{gin.WrapH(s.metrics)}},
	}
}

// credentialsRequest は登録とログインのリクエストのJSON構造。
type credentialsRequest struct {
	// Username はユーザー名。
	Username string `json:"username" binding:"required"`
	// Password はパスワード。
	Password string `json:"password" binding:"required"`
}

// registerResponse は登録結果のJSONレスポンス構造。
type registerResponse struct {
	// ID は作成したユーザーのID。
	ID string `json:"id"`
	// Username はユーザー名。
	Username string `json:"username"`
}

// loginResponse はログイン結果のJSONレスポンス構造。
type loginResponse struct {
	// Token はBearerトークン。
	Token string `json:"token"`
	// TokenType はトークンの種別。常に "Bearer"。
	TokenType string `json:"token_type"`
}

// whoAmIResponse は呼び出し元のユーザー名のJSONレスポンス構造。
type whoAmIResponse struct {
	// Username はユーザー名。
	Username string `json:"username"`
}

// profileResponse はプロフィールのJSONレスポンス構造。
type profileResponse struct {
	Username  string  `json:"username"`
	Nickname  *string `json:"nickname"`
	Email     *string `json:"email"`
	AvatarURL *string `json:"avatar_url"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
}

// profileUpdateRequest はプロフィール部分更新のJSON構造。省略したフィールドは変更しない。
type profileUpdateRequest struct {
	Nickname  *string `json:"nickname"`
	Email     *string `json:"email" binding:"omitempty,email"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

// toProfileResponse はUserをJSONレスポンスに変換する。
func toProfileResponse(u *User) profileResponse {
	return profileResponse{
		Username:  u.Username,
		Nickname:  u.Nickname,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
}

// handleRegister はユーザー登録を処理するハンドラを返す。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperror.Respond(c, apperror.BadRequest(fmt.Sprintf("リクエストが不正です: %v", err)))
			return
		}

		u, err := s.service.Register(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, registerResponse{ID: u.ID, Username: u.Username})
	}
}

// handleLogin はログインを処理するハンドラを返す。
// トークンはレスポンスボディで返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperror.Respond(c, apperror.BadRequest(fmt.Sprintf("リクエストが不正です: %v", err)))
			return
		}

		token, err := s.service.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, loginResponse{Token: token, TokenType: "Bearer"})
	}
}

// handleWhoAmI は呼び出し元のユーザー名を返すハンドラを返す。
func (s *Server) handleWhoAmI() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := s.subject(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, whoAmIResponse{Username: subject})
	}
}

// handleGetMe は呼び出し元のプロフィールを返すハンドラを返す。
func (s *Server) handleGetMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := s.subject(c)
		if !ok {
			return
		}

		u, err := s.service.GetProfile(c.Request.Context(), username)
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, toProfileResponse(u))
	}
}

// handleUpdateMe は呼び出し元のプロフィールを部分更新するハンドラを返す。
func (s *Server) handleUpdateMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := s.subject(c)
		if !ok {
			return
		}

		var req profileUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperror.Respond(c, apperror.BadRequest(fmt.Sprintf("リクエストが不正です: %v", err)))
			return
		}

		u, err := s.service.UpdateProfile(c.Request.Context(), username, ProfileUpdate{
			Nickname:  req.Nickname,
			Email:     req.Email,
			AvatarURL: req.AvatarURL,
		})
		if err != nil {
			apperror.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, toProfileResponse(u))
	}
}

// handleHealth はデータベースの疎通を含むヘルスチェックのハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.health.PingContext(c.Request.Context()); err != nil {
			s.logger.Warn("ヘルスチェックでデータベースに接続できません", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": "identity"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "identity"})
	}
}

// subject は呼び出し元のユーザー名を返す。
// 主体を解決できない場合は401を書き込んで false を返す。
func (s *Server) subject(c *gin.Context) (string, bool) {
	subject, err := middleware.ResolveSubject(c, s.decoder)
	if err != nil {
		apperror.Respond(c, apperror.Unauthorized(middleware.MessageInvalidToken))
		return "", false
	}
	return subject.Username, true
}
