package event

import (
	"context"

	"go.uber.org/zap"
)

// Publisher はイベントを送出する。
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
}

// LogPublisher はイベントを監査ログとしてzapに出力するPublisher。
type LogPublisher struct {
	logger *zap.Logger
}

var _ Publisher = (*LogPublisher)(nil)

// NewLogPublisher はLogPublisherを生成する。ログには "audit" の名前が付く。
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("audit")}
}

// Publish はイベントを1行のログとして出力する。
func (p *LogPublisher) Publish(_ context.Context, e *Event) error {
	fields := []zap.Field{
		zap.String("event_id", e.ID),
		zap.String("event_type", string(e.Type)),
		zap.String("username", e.Username),
		zap.Time("occurred_at", e.OccurredAt),
	}
	if e.UserID != "" {
		fields = append(fields, zap.String("user_id", e.UserID))
	}
	if len(e.Data) > 0 {
		fields = append(fields, zap.ByteString("data", e.Data))
	}
	p.logger.Info("監査イベント", fields...)
	return nil
}

// Discard はイベントを破棄するPublisher。
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, *Event) error { return nil }
