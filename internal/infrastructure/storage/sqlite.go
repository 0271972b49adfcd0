/**
 * Package storage 提供数据持久化功能
 *
 * 负责将捕获到的文本记录持久化到 SQLite，供菜单查询历史
 */

package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chenyang-zz/selgrab/pkg/logger"
	_ "github.com/mattn/go-sqlite3" // SQLite 驱动
	"go.uber.org/zap"
)

/**
 * SQLiteConfig SQLite 配置
 */
type SQLiteConfig struct {
	// Path 数据库文件路径，":memory:" 表示内存数据库
	Path string

	// MaxOpenConns 最大打开连接数
	MaxOpenConns int

	// MaxIdleConns 最大空闲连接数
	MaxIdleConns int

	// ConnMaxLifetime 连接最大生命周期
	ConnMaxLifetime time.Duration
}

/**
 * NewSQLiteDB 创建 SQLite 数据库连接
 *
 * 文件数据库会自动创建所在目录，并启用 WAL 模式
 *
 * Parameters:
 *   - config: SQLite 配置
 *
 * Returns: *sql.DB - 数据库连接实例, error - 错误信息
 */
func NewSQLiteDB(config SQLiteConfig) (*sql.DB, error) {
	logger.Info("创建 SQLite 数据库连接",
		zap.String("component", "storage"),
		zap.String("path", config.Path),
	)

	inMemory := config.Path == ":memory:"

	dataSourceName := config.Path
	if inMemory {
		dataSourceName = "file::memory:?mode=memory&cache=shared"
	} else if dir := filepath.Dir(config.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		logger.Error("打开数据库失败", zap.String("component", "storage"), zap.Error(err))
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	if !inMemory {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA busy_timeout=5000",
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				db.Close()
				logger.Error("配置数据库失败", zap.String("pragma", pragma), zap.Error(err))
				return nil, fmt.Errorf("执行 %s 失败: %w", pragma, err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Error("数据库连接验证失败", zap.String("component", "storage"), zap.Error(err))
		return nil, fmt.Errorf("数据库连接验证失败: %w", err)
	}

	logger.Info("SQLite 数据库连接成功", zap.String("component", "storage"))
	return db, nil
}

/**
 * Open 创建连接并执行迁移
 *
 * Parameters:
 *   - config: SQLite 配置
 *
 * Returns: *sql.DB - 已迁移的数据库连接, error - 错误信息
 */
func Open(config SQLiteConfig) (*sql.DB, error) {
	db, err := NewSQLiteDB(config)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
