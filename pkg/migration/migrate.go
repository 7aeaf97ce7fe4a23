// Package migration はデータベースのマイグレーションを管理する。
// fs.FSからgoose形式のSQLファイルを読み込み、未適用のものだけを順に適用する。
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"go.uber.org/zap"
)

// Run はfsysの直下にあるマイグレーションファイルを適用し、適用した件数を返す。
// 適用済みのバージョンはgooseのバージョン管理テーブルで追跡され、再実行時はスキップされる。
// ファイル名形式: 00001_description.sql
func Run(ctx context.Context, db *sql.DB, dialect database.Dialect, fsys fs.FS, logger *zap.Logger) (int, error) {
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("マイグレーションプロバイダーの生成に失敗: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("マイグレーションの適用に失敗: %w", err)
	}

	for _, r := range results {
		logger.Info("マイグレーションを適用しました",
			zap.Int64("version", r.Source.Version),
			zap.String("path", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return len(results), nil
}
