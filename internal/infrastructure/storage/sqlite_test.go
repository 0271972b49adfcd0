package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB 在临时目录创建已迁移的数据库
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNewSQLiteDB 测试创建 SQLite 数据库连接
//
// 验证能够成功创建数据库连接并配置 WAL 模式
func TestNewSQLiteDB(t *testing.T) {
	config := SQLiteConfig{
		Path:            filepath.Join(t.TempDir(), "nested", "dir", "test.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}

	db, err := NewSQLiteDB(config)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

// TestNewSQLiteDB_Memory 测试内存数据库
func TestNewSQLiteDB_Memory(t *testing.T) {
	db, err := NewSQLiteDB(SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Ping())
}

// TestRunMigrations 测试数据库迁移
//
// 验证所有迁移脚本能够正确执行
func TestRunMigrations(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"captures", "schema_migrations"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "表 %s 应该存在", table)
	}

	var version int
	require.NoError(t, db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, len(migrations), version)
}
