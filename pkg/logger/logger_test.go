/**
 * Package logger 日志系统测试
 */
package logger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// reset 重置全局 logger 状态（仅用于测试）
func reset() {
	once = sync.Once{} //nolint:all
	logger = nil
}

// TestInitLogger 测试日志系统初始化
//
// 测试场景：
//  1. 开发环境初始化
//  2. 生产环境初始化
//  3. 重复初始化（幂等性）
func TestInitLogger(t *testing.T) {
	t.Run("开发环境初始化", func(t *testing.T) {
		reset()
		t.Setenv("ENV", "development")

		require.NoError(t, InitLogger())
		assert.NotNil(t, logger)
	})

	t.Run("生产环境初始化", func(t *testing.T) {
		reset()
		t.Setenv("ENV", "production")

		require.NoError(t, InitLogger())
		assert.NotNil(t, logger)
	})

	t.Run("重复初始化（幂等性）", func(t *testing.T) {
		reset()
		require.NoError(t, InitLogger())
		first := logger

		require.NoError(t, InitLogger())
		assert.Same(t, first, logger, "重复初始化应该返回同一个实例")
	})
}

// TestGetLogger 测试未初始化时自动初始化
func TestGetLogger(t *testing.T) {
	reset()
	assert.NotNil(t, GetLogger())
}

// TestConvenienceFunctions 测试便利函数不会 panic
func TestConvenienceFunctions(t *testing.T) {
	reset()
	require.NoError(t, InitLogger())

	assert.NotPanics(t, func() {
		Debug("debug", zap.String("key", "value"))
		Info("info", zap.String("key", "value"))
		Warn("warn", zap.String("key", "value"))
		Error("error", zap.String("key", "value"))
		With(zap.String("component", "test")).Info("with fields")
	})
}

// TestInitWithOptions_FileRotation 测试文件滚动输出
//
// 验证配置文件路径后日志写入 lumberjack 管理的文件。
func TestInitWithOptions_FileRotation(t *testing.T) {
	reset()
	path := filepath.Join(t.TempDir(), "selgrab.log")

	err := InitWithOptions(Options{
		Env:        "production",
		Level:      "info",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
	})
	require.NoError(t, err)

	Info("写入文件", zap.String("test", "rotation"))
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "写入文件")
}

// TestInitWithOptions_Level 测试日志级别过滤
func TestInitWithOptions_Level(t *testing.T) {
	reset()
	require.NoError(t, InitWithOptions(Options{Env: "development", Level: "warn"}))

	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

// TestGetEnvInt 测试整数环境变量解析
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		expected     int
	}{
		{"有效整数", "100", 10, 100},
		{"无效值", "invalid", 10, 10},
		{"空值", "", 10, 10},
		{"负数", "-5", 10, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.envValue)
			assert.Equal(t, tt.expected, getEnvInt("TEST_INT", tt.defaultValue))
		})
	}
}

// TestGetEnvBool 测试布尔环境变量解析
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		envValue     string
		defaultValue bool
		expected     bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"no", true, false},
		{"0", true, false},
		{"", true, true},
		{"invalid", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			assert.Equal(t, tt.expected, getEnvBool("TEST_BOOL", tt.defaultValue))
		})
	}
}
