// Package router はルート定義を組み立て、認証ゲートを適用したHTTPハンドラーを構築する。
//
// 組み立てフェーズでは Builder にルートを宣言する。各ルートは認証の要否を持ち、
// 認証不要のルートは Build 時に免除集合へまとめられる。Build 後の Builder は凍結され、
// ルートやミドルウェアを追加しようとするとパニックになる。
// 配信フェーズの Router はリクエストを処理するだけで、登録用のメソッドを持たない。
package router
