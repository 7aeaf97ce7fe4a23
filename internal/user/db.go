package user

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nao1215/identity/pkg/migration"
	"github.com/pressly/goose/v3/database"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// memoryDSN はインメモリSQLiteの接続文字列。
const memoryDSN = ":memory:"

// sqlitePragmas はファイルベースのSQLiteに設定するプラグマ。
const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// DB はマイグレーション済みのデータベース接続とそれを使う Store の組。
type DB struct {
	Store
	db      *sql.DB
	dialect database.Dialect
}

// Dialect は接続先のSQL方言を返す。
func (d *DB) Dialect() database.Dialect {
	return d.dialect
}

// PingContext はデータベースへの疎通を確認する。
func (d *DB) PingContext(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (d *DB) Close() error {
	return d.db.Close()
}

// Open は接続文字列に応じたデータベースを開き、マイグレーションを適用する。
//
// postgres:// または postgresql:// で始まる場合はPostgreSQL、それ以外は
// sqlite:// 接頭辞付き、または接頭辞なしのファイルパスとしてSQLiteに接続する。
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) (*DB, error) {
	var (
		sqlDB   *sql.DB
		dialect database.Dialect
		dir     string
		err     error
	)

	if isPostgresURL(databaseURL) {
		dialect, dir = database.DialectPostgres, "migrations/postgres"
		sqlDB, err = sql.Open("pgx", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("PostgreSQLへの接続に失敗: %w", err)
		}
	} else {
		dialect, dir = database.DialectSQLite3, "migrations/sqlite"
		sqlDB, err = openSQLite(sqlitePath(databaseURL))
		if err != nil {
			return nil, err
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	migrations, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("マイグレーションファイルの読み込みに失敗: %w", err)
	}
	if _, err := migration.Run(ctx, sqlDB, dialect, migrations, logger); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	var store Store
	if dialect == database.DialectPostgres {
		store = NewPostgresStore(sqlDB)
	} else {
		store = NewSQLiteStore(sqlDB)
	}
	return &DB{Store: store, db: sqlDB, dialect: dialect}, nil
}

// isPostgresURL はPostgreSQLの接続文字列かどうかを判定する。
func isPostgresURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://")
}

// sqlitePath は sqlite:// 接頭辞を取り除いたファイルパスを返す。
// sqlite:///data/identity.db は /data/identity.db、sqlite://:memory: はインメモリになる。
func sqlitePath(databaseURL string) string {
	return strings.TrimPrefix(databaseURL, "sqlite://")
}

// openSQLite はSQLiteデータベースを開く。
func openSQLite(path string) (*sql.DB, error) {
	if path == memoryDSN || path == "" {
		db, err := sql.Open("sqlite", memoryDSN)
		if err != nil {
			return nil, fmt.Errorf("SQLiteへの接続に失敗: %w", err)
		}
		// インメモリDBは接続ごとに別のDBになるため接続を1本に固定する
		db.SetMaxOpenConns(1)
		return db, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("データベースディレクトリの作成に失敗: %w", err)
		}
	}

	dsn := path + "?" + sqlitePragmas
	if strings.Contains(path, "?") {
		dsn = path + "&" + sqlitePragmas
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("SQLiteへの接続に失敗: %w", err)
	}
	return db, nil
}
