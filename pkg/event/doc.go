// Package event はアカウント操作の監査イベントを定義する。
//
// 登録、ログインの成否、プロフィール更新をイベントとして生成し、Publisher を通じて送出する。
// パスワードやトークン、更新後の値はイベントに含めない。
package event
