/**
 * Package config 提供配置管理功能
 *
 * 负责加载和管理应用的配置信息
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

/**
 * Config 应用配置结构体
 *
 * 包含应用的所有可配置参数
 */
type Config struct {
	// Application 应用基本配置
	Application ApplicationConfig `yaml:"application"`

	// Capture 捕获输出配置
	Capture CaptureConfig `yaml:"capture"`

	// ClipboardWatch 剪贴板轮询配置
	ClipboardWatch ClipboardWatchConfig `yaml:"clipboard_watch"`

	// Storage 存储配置
	Storage StorageConfig `yaml:"storage"`

	// Logging 日志配置
	Logging LoggingConfig `yaml:"logging"`
}

/**
 * ApplicationConfig 应用基本配置
 */
type ApplicationConfig struct {
	/** 应用名称 */
	Name string `yaml:"name"`

	/** 应用版本 */
	Version string `yaml:"version"`

	/** 是否启用调试模式 */
	Debug bool `yaml:"debug"`
}

/**
 * CaptureConfig 捕获输出配置
 */
type CaptureConfig struct {
	/** 是否记录捕获历史 */
	History bool `yaml:"history"`

	/** 控制台预览最大字符数，0 表示完整输出 */
	PreviewLength int `yaml:"preview_length"`

	/** 是否输出诊断信息（未捕获到文本的原因） */
	ShowDiagnostics bool `yaml:"show_diagnostics"`

	/** 菜单 "最近捕获记录" 显示条数 */
	RecentLimit int `yaml:"recent_limit"`

	/** 事件总线每个订阅者的缓冲区大小，缓冲区满时丢弃事件 */
	EventBuffer int `yaml:"event_buffer"`
}

/**
 * ClipboardWatchConfig 剪贴板轮询配置
 */
type ClipboardWatchConfig struct {
	/** 检查间隔 */
	Interval string `yaml:"interval"`
}

/**
 * StorageConfig 存储配置
 */
type StorageConfig struct {
	/** SQLite 配置 */
	SQLite SQLiteConfig `yaml:"sqlite"`

	/** 数据保留策略 */
	Retention RetentionConfig `yaml:"retention"`
}

/**
 * SQLiteConfig SQLite 配置
 */
type SQLiteConfig struct {
	/** 数据库文件路径 */
	Path string `yaml:"path"`

	/** 最大打开连接数 */
	MaxOpenConns int `yaml:"max_open_conns"`

	/** 最大空闲连接数 */
	MaxIdleConns int `yaml:"max_idle_conns"`

	/** 连接最大生命周期 */
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

/**
 * RetentionConfig 数据保留配置
 */
type RetentionConfig struct {
	/** 捕获记录保留天数，0 表示永久保留 */
	CapturesDays int `yaml:"captures_days"`
}

/**
 * LoggingConfig 日志配置
 */
type LoggingConfig struct {
	/** 日志级别 */
	Level string `yaml:"level"`

	/** 日志格式 */
	Format string `yaml:"format"`

	/** 文件配置 */
	File FileConfig `yaml:"file"`
}

/**
 * FileConfig 文件配置
 */
type FileConfig struct {
	/** 日志文件路径，为空时只输出到控制台 */
	Path string `yaml:"path"`

	/** 单个文件最大大小（MB） */
	MaxSize int `yaml:"max_size"`

	/** 最大备份文件数 */
	MaxBackups int `yaml:"max_backups"`

	/** 最大保留天数 */
	MaxAge int `yaml:"max_age"`

	/** 是否压缩 */
	Compress bool `yaml:"compress"`
}

/**
 * DefaultPath 返回默认配置文件路径 ~/.selgrab/config.yaml
 *
 * Returns:
 *   - string: 配置文件路径
 *   - error: 无法获取用户主目录时返回错误
 */
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".selgrab", "config.yaml"), nil
}

/**
 * Load 加载配置文件
 *
 * 文件不存在时返回默认配置；文件中未出现的字段保留默认值。
 * 加载后展开字符串字段中的环境变量。
 *
 * Parameters:
 *   - path: 配置文件路径，为空时使用 DefaultPath
 *
 * Returns:
 *   - *Config: 加载的配置
 *   - error: 错误信息
 */
func Load(path string) (*Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = defaultPath
	}

	config, err := LoadDefault()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		expandEnvVars(config)
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	expandEnvVars(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

/**
 * LoadDefault 加载默认配置
 *
 * Returns:
 *   - *Config: 默认配置
 *   - error: 错误信息
 */
func LoadDefault() (*Config, error) {
	return &Config{
		Application: ApplicationConfig{
			Name:    "selgrab",
			Version: "1.0.0",
		},
		Capture: CaptureConfig{
			History:         true,
			PreviewLength:   0,
			ShowDiagnostics: true,
			RecentLimit:     10,
			EventBuffer:     256,
		},
		ClipboardWatch: ClipboardWatchConfig{
			Interval: "500ms",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:            "${HOME}/.selgrab/captures.db",
				MaxOpenConns:    1,
				MaxIdleConns:    1,
				ConnMaxLifetime: "1h",
			},
			Retention: RetentionConfig{
				CapturesDays: 30,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File: FileConfig{
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     7,
			},
		},
	}, nil
}

/**
 * Validate 校验配置
 *
 * Returns: error - 时长字段无法解析或数值为负时返回错误
 */
func (c *Config) Validate() error {
	if _, err := c.ClipboardWatch.IntervalDuration(); err != nil {
		return fmt.Errorf("clipboard_watch.interval: %w", err)
	}
	if _, err := c.Storage.SQLite.ConnMaxLifetimeDuration(); err != nil {
		return fmt.Errorf("storage.sqlite.conn_max_lifetime: %w", err)
	}
	if c.Capture.PreviewLength < 0 {
		return fmt.Errorf("capture.preview_length 不能为负数: %d", c.Capture.PreviewLength)
	}
	if c.Capture.EventBuffer < 0 {
		return fmt.Errorf("capture.event_buffer 不能为负数: %d", c.Capture.EventBuffer)
	}
	if c.Storage.Retention.CapturesDays < 0 {
		return fmt.Errorf("storage.retention.captures_days 不能为负数: %d", c.Storage.Retention.CapturesDays)
	}
	return nil
}

// IntervalDuration 解析轮询间隔，为空时返回 0
func (c ClipboardWatchConfig) IntervalDuration() (time.Duration, error) {
	return parseDuration(c.Interval)
}

// ConnMaxLifetimeDuration 解析连接最大生命周期，为空时返回 0
func (c SQLiteConfig) ConnMaxLifetimeDuration() (time.Duration, error) {
	return parseDuration(c.ConnMaxLifetime)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("时长不能为负数: %s", s)
	}
	return d, nil
}

/**
 * expandEnvVars 展开环境变量
 *
 * 替换路径类字段中的环境变量占位符，如 ${HOME}。
 * Windows 上没有 HOME 时使用 USERPROFILE。
 *
 * Parameters:
 *   - config: 配置对象
 */
func expandEnvVars(config *Config) {
	mapping := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		if key == "HOME" {
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		}
		return ""
	}

	config.Storage.SQLite.Path = os.Expand(config.Storage.SQLite.Path, mapping)
	config.Logging.File.Path = os.Expand(config.Logging.File.Path, mapping)
}
