package router

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/identity/pkg/middleware"
)

// ErrFrozen は Build 後にルートやミドルウェアを追加しようとしたことを表す。
// 実行時エラーではなくプログラミングエラーとしてパニックの値に使われる。
var ErrFrozen = errors.New("router: ビルド後のルート登録はできません")

// GateFactory は免除集合を受け取り、認証ゲートのミドルウェアを生成する。
type GateFactory func(exempt middleware.ExemptionSet) gin.HandlerFunc

// Route はルート定義。
type Route struct {
	// Method はHTTPメソッド。
	Method string
	// Path はginのルートパス（パスパラメータを含む定義上のパス）。
	Path string
	// RequiresAuth は認証が必要かどうか。false の場合は免除ルートになる。
	RequiresAuth bool
	// Handlers はルートのハンドラーチェーン。
	Handlers []gin.HandlerFunc
}

// key はメソッドとパスの組を識別するキーを返す。
func (r Route) key() string {
	return r.Method + " " + r.Path
}

// Builder はルート定義を受け付け、Router を構築する。
// Build 前に限って利用でき、複数のgoroutineから同時に呼び出してはならない。
type Builder struct {
	gate        GateFactory
	middlewares []gin.HandlerFunc
	routes      []Route
	seen        map[string]struct{}
	access      map[string]bool
	built       *Router
}

// NewBuilder は認証ゲートの生成関数を受け取り、Builder を生成する。
func NewBuilder(gate GateFactory) *Builder {
	if gate == nil {
		panic("router: 認証ゲートの生成関数がnilです")
	}
	return &Builder{
		gate:   gate,
		seen:   make(map[string]struct{}),
		access: make(map[string]bool),
	}
}

// Use は認証ゲートより前に実行されるグローバルミドルウェアを追加する。
func (b *Builder) Use(handlers ...gin.HandlerFunc) {
	b.ensureAssembling()
	b.middlewares = append(b.middlewares, handlers...)
}

// Handle はルートを宣言する。
// 同じメソッドとパスの組を二度宣言した場合、または同じパスに認証の要否が異なる
// ルートを宣言した場合はパニックになる。免除はパス単位で判定されるため。
func (b *Builder) Handle(r Route) {
	b.ensureAssembling()

	if r.Method == "" || r.Path == "" || !strings.HasPrefix(r.Path, "/") {
		panic(fmt.Sprintf("router: 不正なルート定義です: %q %q", r.Method, r.Path))
	}
	if len(r.Handlers) == 0 {
		panic(fmt.Sprintf("router: ハンドラーが無いルートです: %s", r.key()))
	}
	if _, dup := b.seen[r.key()]; dup {
		panic(fmt.Sprintf("router: ルートが重複しています: %s", r.key()))
	}
	if requires, ok := b.access[r.Path]; ok && requires != r.RequiresAuth {
		panic(fmt.Sprintf("router: 同じパスに認証の要否が異なるルートがあります: %s", r.Path))
	}

	b.seen[r.key()] = struct{}{}
	b.access[r.Path] = r.RequiresAuth
	r.Handlers = append([]gin.HandlerFunc(nil), r.Handlers...)
	b.routes = append(b.routes, r)
}

// Public は認証不要のルートを宣言する。
func (b *Builder) Public(method, path string, handlers ...gin.HandlerFunc) {
	b.Handle(Route{Method: method, Path: path, RequiresAuth: false, Handlers: handlers})
}

// Protected は認証が必要なルートを宣言する。
func (b *Builder) Protected(method, path string, handlers ...gin.HandlerFunc) {
	b.Handle(Route{Method: method, Path: path, RequiresAuth: true, Handlers: handlers})
}

// Group は共通のパス接頭辞を持つルートグループを返す。
func (b *Builder) Group(prefix string) *Group {
	b.ensureAssembling()
	return &Group{builder: b, prefix: prefix}
}

// Build はすべてのルート定義から免除集合を構築し、認証ゲートを適用した Router を返す。
//
// ginエンジンにはグローバルミドルウェア、認証ゲート、ルートの順に登録する。
// ginのミドルウェアは登録後に追加されたルートにだけ適用されるため、この順序により
// すべてのルートがゲートを通る。二度目以降の呼び出しは同じ Router を返す。
func (b *Builder) Build() *Router {
	if b.built != nil {
		return b.built
	}

	exempt := newExemptions(b.routes)

	engine := gin.New()
	engine.Use(b.middlewares...)
	engine.Use(b.gate(exempt))
	for _, r := range b.routes {
		engine.Handle(r.Method, r.Path, r.Handlers...)
	}

	b.built = &Router{
		engine: engine,
		exempt: exempt,
		routes: b.routes,
	}
	return b.built
}

// ensureAssembling は Build 後の呼び出しであればパニックにする。
func (b *Builder) ensureAssembling() {
	if b.built != nil {
		panic(ErrFrozen)
	}
}

// Group は共通のパス接頭辞を持つルートの集まり。
type Group struct {
	builder *Builder
	prefix  string
}

// Handle は接頭辞を付けてルートを宣言する。
func (g *Group) Handle(r Route) {
	r.Path = joinPath(g.prefix, r.Path)
	g.builder.Handle(r)
}

// Public は接頭辞を付けて認証不要のルートを宣言する。
func (g *Group) Public(method, relativePath string, handlers ...gin.HandlerFunc) {
	g.Handle(Route{Method: method, Path: relativePath, RequiresAuth: false, Handlers: handlers})
}

// Protected は接頭辞を付けて認証が必要なルートを宣言する。
func (g *Group) Protected(method, relativePath string, handlers ...gin.HandlerFunc) {
	g.Handle(Route{Method: method, Path: relativePath, RequiresAuth: true, Handlers: handlers})
}

// Group は接頭辞を連結したサブグループを返す。
func (g *Group) Group(prefix string) *Group {
	g.builder.ensureAssembling()
	return &Group{builder: g.builder, prefix: joinPath(g.prefix, prefix)}
}

// joinPath はginと同じ規則でパスを連結する。末尾のスラッシュは維持する。
func joinPath(prefix, relative string) string {
	if relative == "" {
		return prefix
	}
	joined := path.Join("/", prefix, relative)
	if strings.HasSuffix(relative, "/") && !strings.HasSuffix(joined, "/") {
		return joined + "/"
	}
	return joined
}
