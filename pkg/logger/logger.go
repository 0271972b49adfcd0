/**
 * Package logger 提供结构化日志功能
 *
 * 基于 uber-go/zap 实现，文件输出通过 lumberjack 滚动。
 * 开发环境输出彩色控制台日志，生产环境输出 JSON。
 */
package logger

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// logger 全局日志实例
	logger *zap.Logger

	// once 确保日志只初始化一次
	once sync.Once
)

/**
 * Options 日志配置选项
 *
 * 零值字段回退到环境变量或默认值
 */
type Options struct {
	// Env 运行环境（development/production）
	Env string

	// Level 日志级别
	Level string

	// Format 输出格式（console/json），为空时由 Env 决定
	Format string

	// File 日志文件路径，为空表示只输出到控制台
	File string

	// MaxSizeMB 单个日志文件最大尺寸（MB）
	MaxSizeMB int

	// MaxBackups 保留的旧文件数量
	MaxBackups int

	// MaxAgeDays 旧文件保留天数
	MaxAgeDays int

	// Compress 是否压缩旧文件
	Compress bool
}

// InitLogger 初始化日志系统
//
// 根据环境变量配置日志系统：
//   - ENV: 环境类型（development/production），默认为 development
//   - LOG_LEVEL: 日志级别，默认根据环境自动设置
//   - LOG_FILE: 日志文件路径（可选）
//   - LOG_MAX_SIZE / LOG_MAX_BACKUPS / LOG_MAX_AGE / LOG_COMPRESS: 滚动参数
//
// Returns: error - 初始化失败时返回错误
func InitLogger() error {
	return InitWithOptions(optionsFromEnv())
}

// InitWithOptions 使用显式配置初始化日志系统
//
// 只有第一次调用生效，之后的调用直接返回。
//
// Parameters:
//   - opts: 日志配置
//
// Returns: error - 初始化失败时返回错误
func InitWithOptions(opts Options) error {
	var initErr error
	once.Do(func() {
		logger, initErr = build(opts)
	})
	return initErr
}

// optionsFromEnv 从环境变量读取日志配置
func optionsFromEnv() Options {
	return Options{
		Env:        getEnv("ENV", "development"),
		Level:      getEnv("LOG_LEVEL", ""),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  getEnvInt("LOG_MAX_SIZE", 100),
		MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		MaxAgeDays: getEnvInt("LOG_MAX_AGE", 28),
		Compress:   getEnvBool("LOG_COMPRESS", false),
	}
}

// build 根据配置构建 logger
//
// Parameters:
//   - opts: 日志配置
//
// Returns:
//   - *zap.Logger: 配置好的 logger
//   - error: 初始化失败时返回错误
func build(opts Options) (*zap.Logger, error) {
	production := opts.Env == "production"

	format := opts.Format
	if format == "" {
		format = "console"
		if production {
			format = "json"
		}
	}

	defaultLevel := zapcore.DebugLevel
	if production {
		defaultLevel = zapcore.InfoLevel
	}
	level := defaultLevel
	if opts.Level != "" {
		if parsed, err := zapcore.ParseLevel(opts.Level); err == nil {
			level = parsed
		}
	}
	atomicLevel := zap.NewAtomicLevelAt(level)

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(productionEncoderConfig())
	} else {
		encoder = zapcore.NewConsoleEncoder(developmentEncoderConfig())
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), atomicLevel),
	}

	if opts.File != "" {
		// 文件始终使用 JSON，便于离线分析
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(productionEncoderConfig()),
			zapcore.AddSync(rotator),
			atomicLevel,
		))
	}

	zapOpts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if !production {
		zapOpts = append(zapOpts, zap.Development())
	}

	return zap.New(zapcore.NewTee(cores...), zapOpts...), nil
}

// developmentEncoderConfig 开发环境编码配置
//
// 彩色级别、短调用者、友好的时间格式（2024-01-29 15:04:05.123）
func developmentEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    "",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.999"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// productionEncoderConfig 生产环境编码配置
func productionEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

// GetLogger 获取全局 logger 实例
//
// 如果日志系统未初始化，会自动初始化（开发模式）。
//
// Returns: *zap.Logger - 全局 logger 实例
func GetLogger() *zap.Logger {
	if logger == nil {
		_ = InitLogger()
	}
	return logger
}

// Sync 刷新日志缓冲区
//
// 应用退出前应该调用此方法确保所有日志都已写入。
// Returns: error - 刷新失败时返回错误
func Sync() error {
	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// Debug 记录 Debug 级别日志
//
// Parameters:
//   - msg: 日志消息
//   - fields: 日志字段（可选）
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info 记录 Info 级别日志
//
// Parameters:
//   - msg: 日志消息
//   - fields: 日志字段（可选）
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn 记录 Warn 级别日志
//
// Parameters:
//   - msg: 日志消息
//   - fields: 日志字段（可选）
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error 记录 Error 级别日志
//
// Parameters:
//   - msg: 日志消息
//   - fields: 日志字段（可选）
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// With 创建带有预设字段的 logger
//
// Parameters:
//   - fields: 预设的日志字段
//
// Returns: *zap.Logger - 带有预设字段的 logger
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// getEnv 获取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 获取整数环境变量，解析失败时返回默认值
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvBool 获取布尔环境变量
//
// 接受 true/1/yes 与 false/0/no（不区分大小写），其他值返回默认值。
func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
