// Package httpclient はJSON APIを呼び出すHTTPクライアントを提供する。
//
// Bearerトークンはコンテキスト経由で渡し、2xx以外の応答は StatusError として返す。
// ユーザー認証サービスの利用者やエンドツーエンドテストから使用する。
package httpclient
