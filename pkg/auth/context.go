package auth

import "context"

// subjectKey はリクエストコンテキストに主体を格納するためのキー。
type subjectKey struct{}

// WithSubject はコンテキストに認証済みの主体を設定する。
func WithSubject(ctx context.Context, subject Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext はコンテキストから主体を取得する。
// 主体が設定されていない場合は false を返す。
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	subject, ok := ctx.Value(subjectKey{}).(Subject)
	if !ok || subject.Username == "" {
		return Subject{}, false
	}
	return subject, true
}
