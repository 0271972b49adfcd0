package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chenyang-zz/selgrab/pkg/events"
	"github.com/chenyang-zz/selgrab/pkg/logger"
	"go.uber.org/zap"
)

/**
 * Capture 一条捕获记录
 */
type Capture struct {
	// ID 自增主键
	ID int64

	// UUID 来源事件 ID
	UUID string

	// Source 捕获来源（hook / accessibility / pointer_probe / clipboard_poll）
	Source string

	// Label 提取方式描述
	Label string

	// Text 捕获的文本
	Text string

	// WindowTitle 捕获时的前台窗口标题
	WindowTitle string

	// CapturedAt 捕获时间（UTC）
	CapturedAt time.Time
}

/**
 * CaptureFromEvent 从 selection / clipboard 事件构造捕获记录
 *
 * Parameters:
 *   - event: 事件
 *
 * Returns: Capture - 捕获记录, bool - 事件不含文本时为 false
 */
func CaptureFromEvent(event events.Event) (Capture, bool) {
	if event.Type != events.EventTypeSelection && event.Type != events.EventTypeClipboard {
		return Capture{}, false
	}

	text := event.String("text")
	if text == "" {
		return Capture{}, false
	}

	capture := Capture{
		UUID:       event.ID,
		Source:     event.String("source"),
		Label:      event.String("label"),
		Text:       text,
		CapturedAt: event.Timestamp.UTC(),
	}
	if event.Context != nil {
		capture.WindowTitle = event.Context.WindowTitle
	}
	return capture, true
}

/**
 * CaptureRepository 捕获记录存储接口
 */
type CaptureRepository interface {
	// Save 保存单条记录
	Save(capture Capture) error

	// SaveBatch 在一个事务中批量保存
	SaveBatch(captures []Capture) error

	// FindRecent 查询最近的记录（从新到旧）
	FindRecent(limit int) ([]Capture, error)

	// CountBySource 按来源统计数量
	CountBySource() (map[string]int64, error)

	// DeleteOlderThan 删除旧记录
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

/**
 * SQLiteCaptureRepository SQLite 捕获记录仓储实现
 */
type SQLiteCaptureRepository struct {
	db *sql.DB
}

/**
 * NewSQLiteCaptureRepository 创建 SQLite 捕获记录仓储
 *
 * Parameters:
 *   - db: 已执行迁移的数据库连接
 *
 * Returns: *SQLiteCaptureRepository - 仓储实例
 */
func NewSQLiteCaptureRepository(db *sql.DB) *SQLiteCaptureRepository {
	return &SQLiteCaptureRepository{db: db}
}

const insertCaptureSQL = `
	INSERT OR IGNORE INTO captures (uuid, source, label, text, window_title, captured_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

/**
 * Save 保存单条记录
 *
 * UUID 重复的记录被忽略
 *
 * Parameters:
 *   - capture: 捕获记录
 *
 * Returns: error - 错误信息
 */
func (r *SQLiteCaptureRepository) Save(capture Capture) error {
	_, err := r.db.Exec(insertCaptureSQL,
		capture.UUID,
		capture.Source,
		capture.Label,
		capture.Text,
		capture.WindowTitle,
		capture.CapturedAt.UTC(),
	)
	if err != nil {
		logger.Error("保存捕获记录失败",
			zap.String("component", "storage"),
			zap.String("uuid", capture.UUID),
			zap.Error(err),
		)
		return fmt.Errorf("保存捕获记录失败: %w", err)
	}
	return nil
}

/**
 * SaveBatch 批量保存记录
 *
 * 使用事务和预处理语句，任一插入失败则整批回滚
 *
 * Parameters:
 *   - captures: 记录列表
 *
 * Returns: error - 错误信息
 */
func (r *SQLiteCaptureRepository) SaveBatch(captures []Capture) error {
	if len(captures) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertCaptureSQL)
	if err != nil {
		return fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	for _, capture := range captures {
		if _, err := stmt.Exec(
			capture.UUID,
			capture.Source,
			capture.Label,
			capture.Text,
			capture.WindowTitle,
			capture.CapturedAt.UTC(),
		); err != nil {
			return fmt.Errorf("插入捕获记录 %s 失败: %w", capture.UUID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	logger.Debug("批量保存捕获记录成功",
		zap.String("component", "storage"),
		zap.Int("count", len(captures)),
	)
	return nil
}

/**
 * FindRecent 查询最近的记录
 *
 * Parameters:
 *   - limit: 返回数量限制
 *
 * Returns: []Capture - 从新到旧排列的记录, error - 错误信息
 */
func (r *SQLiteCaptureRepository) FindRecent(limit int) ([]Capture, error) {
	rows, err := r.db.Query(`
		SELECT id, uuid, source, label, text, window_title, captured_at
		FROM captures
		ORDER BY captured_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询最近捕获记录失败: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		var c Capture
		var label, windowTitle sql.NullString
		if err := rows.Scan(&c.ID, &c.UUID, &c.Source, &label, &c.Text, &windowTitle, &c.CapturedAt); err != nil {
			return nil, fmt.Errorf("扫描捕获记录失败: %w", err)
		}
		c.Label = label.String
		c.WindowTitle = windowTitle.String
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历捕获记录失败: %w", err)
	}
	return captures, nil
}

/**
 * CountBySource 按来源统计记录数
 *
 * Returns: map[string]int64 - 来源到数量的映射, error - 错误信息
 */
func (r *SQLiteCaptureRepository) CountBySource() (map[string]int64, error) {
	rows, err := r.db.Query("SELECT source, COUNT(*) FROM captures GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("按来源统计失败: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("扫描来源统计失败: %w", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历来源统计失败: %w", err)
	}
	return counts, nil
}

/**
 * DeleteOlderThan 删除早于指定时间的记录
 *
 * Parameters:
 *   - cutoff: 截止时间
 *
 * Returns: int64 - 删除的记录数, error - 错误信息
 */
func (r *SQLiteCaptureRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM captures WHERE captured_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("删除旧捕获记录失败: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("获取删除行数失败: %w", err)
	}

	if count > 0 {
		logger.Info("删除旧捕获记录",
			zap.String("component", "storage"),
			zap.Int64("count", count),
			zap.Time("cutoff", cutoff),
		)
	}
	return count, nil
}
