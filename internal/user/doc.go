// Package user はユーザーの登録、ログイン、プロフィールの参照と更新を提供する。
//
// HTTPハンドラーは Routes でルート定義の表として公開され、認証の要否は
// ルートごとに宣言される。ユーザーの永続化は Store を介して行い、
// SQLiteとPostgreSQLの実装を DATABASE_URL のスキームで切り替える。
package user
