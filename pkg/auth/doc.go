// Package auth は認証トークンの発行と検証を提供する。
//
// トークンはHMAC署名付きのJWTで、主体（ユーザー名とユーザーID）、発行時刻、
// 有効期限を保持する。サーバー側には保存せず、有効性は署名と時刻のみで判定する。
package auth
