// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンによる認証ゲート、呼び出し元の主体の解決、アクセスログ、
// パニックリカバリ、CORS設定、Prometheusメトリクスを含む。
package middleware
