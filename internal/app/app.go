/**
 * Package app 提供控制台应用层的实现
 *
 * App 层职责：
 * - 装配配置、事件总线、存储与平台能力
 * - 按菜单选项运行三种捕获模式
 * - 将捕获事件输出到控制台并记录历史
 */

package app

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chenyang-zz/selgrab/internal/capture"
	"github.com/chenyang-zz/selgrab/internal/infrastructure/config"
	"github.com/chenyang-zz/selgrab/internal/infrastructure/storage"
	"github.com/chenyang-zz/selgrab/internal/monitor"
	"github.com/chenyang-zz/selgrab/internal/platform"
	"github.com/chenyang-zz/selgrab/pkg/events"
	"github.com/chenyang-zz/selgrab/pkg/logger"
	"go.uber.org/zap"
)

/**
 * Mode 菜单选项
 */
type Mode string

const (
	ModeClipboard     Mode = "1" // 剪贴板轮询
	ModeAccessibility Mode = "2" // UI Automation 轮询
	ModeHook          Mode = "3" // 全局鼠标钩子
	ModeHistory       Mode = "4" // 最近捕获记录
	ModeQuit          Mode = "q"
)

// ErrUnknownMode 无效的菜单选项
var ErrUnknownMode = errors.New("unknown mode")

/**
 * Platform 平台能力集合
 *
 * 测试时可替换为内存实现
 */
type Platform struct {
	// Clipboard 系统剪贴板
	Clipboard platform.Clipboard

	// NewHookHost 创建钩子宿主，每次运行钩子模式调用一次
	NewHookHost func() platform.HookHost

	// Keys 按键注入
	Keys platform.KeySender

	// NewSignalHost 创建控制台信号宿主
	NewSignalHost func() platform.SignalHost

	// Accessibility UI Automation 客户端工厂
	Accessibility platform.AccessibilityFactory
}

/**
 * DefaultPlatform 返回当前操作系统的平台实现
 */
func DefaultPlatform() Platform {
	return Platform{
		Clipboard:     platform.NewSystemClipboard(),
		NewHookHost:   platform.NewHookHost,
		Keys:          platform.NewKeySender(),
		NewSignalHost: platform.NewSignalHost,
		Accessibility: platform.NewAccessibility,
	}
}

/**
 * App 控制台应用
 */
type App struct {
	// config 应用配置
	config *config.Config

	// eventBus 事件总线，捕获组件发布，报告器和记录器订阅
	eventBus *events.EventBus

	// platform 平台能力
	platform Platform

	// out 控制台输出
	out io.Writer

	// reporter 控制台输出订阅者
	reporter *Reporter

	// db 捕获历史数据库，未启用历史时为 nil
	db *sql.DB

	// captures 捕获记录仓储
	captures storage.CaptureRepository

	// recorder 捕获记录器
	recorder *storage.Recorder
}

/**
 * Option App 可选配置
 */
type Option func(*App)

// WithPlatform 替换平台实现
func WithPlatform(p Platform) Option {
	return func(a *App) { a.platform = p }
}

// WithOutput 替换控制台输出
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

/**
 * New 创建应用
 *
 * Parameters:
 *   - cfg: 应用配置
 *   - opts: 可选配置
 *
 * Returns:
 *   - *App: 未启动的应用
 */
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{
		config:   cfg,
		eventBus: events.NewEventBus(events.WithBufferSize(cfg.Capture.EventBuffer)),
		platform: DefaultPlatform(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.reporter = NewReporter(a.out, cfg.Capture.PreviewLength, cfg.Capture.ShowDiagnostics)
	return a
}

/**
 * Startup 初始化
 *
 * 1. 注册控制台报告器
 * 2. 启用历史时打开数据库、清理过期记录并启动记录器
 *
 * Returns:
 *   - error: 打开数据库失败时返回错误
 */
func (a *App) Startup() error {
	a.eventBus.Use(events.RecoveryMiddleware())
	a.eventBus.Use(events.LoggingMiddleware())
	a.reporter.Attach(a.eventBus)

	if !a.config.Capture.History {
		logger.Info("捕获历史已关闭", zap.String("component", "app"))
		return nil
	}

	lifetime, _ := a.config.Storage.SQLite.ConnMaxLifetimeDuration()
	db, err := storage.Open(storage.SQLiteConfig{
		Path:            a.config.Storage.SQLite.Path,
		MaxOpenConns:    a.config.Storage.SQLite.MaxOpenConns,
		MaxIdleConns:    a.config.Storage.SQLite.MaxIdleConns,
		ConnMaxLifetime: lifetime,
	})
	if err != nil {
		return fmt.Errorf("failed to open capture history: %w", err)
	}
	a.db = db
	a.captures = storage.NewSQLiteCaptureRepository(db)

	if _, err := storage.Prune(a.captures, a.config.Storage.Retention.CapturesDays, time.Now()); err != nil {
		logger.Warn("清理过期捕获记录失败", zap.String("component", "app"), zap.Error(err))
	}

	a.recorder = storage.NewRecorder(a.eventBus, a.captures, storage.DefaultRecorderConfig())
	a.recorder.Start()
	return nil
}

/**
 * Shutdown 释放资源
 *
 * 停止记录器（刷新未写入的记录），关闭事件总线和数据库
 */
func (a *App) Shutdown() {
	if a.recorder != nil {
		a.recorder.Stop()
	}
	a.reporter.Detach(a.eventBus)
	if err := a.eventBus.Stop(2 * time.Second); err != nil {
		logger.Warn("事件总线停止超时", zap.String("component", "app"), zap.Error(err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.Warn("关闭数据库失败", zap.String("component", "app"), zap.Error(err))
		}
	}
}

/**
 * RunMenu 运行交互菜单
 *
 * 循环读取选项并运行对应模式，直到输入 q、输入结束或 ctx 取消
 *
 * Parameters:
 *   - ctx: 上下文
 *   - in: 菜单输入
 *
 * Returns:
 *   - error: 读取输入失败时返回错误
 */
func (a *App) RunMenu(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		a.printMenu()

		if !scanner.Scan() {
			return scanner.Err()
		}

		mode := Mode(strings.TrimSpace(scanner.Text()))
		if mode == ModeQuit {
			fmt.Fprintln(a.out, "程序退出。")
			return nil
		}

		if err := a.RunMode(ctx, mode); err != nil {
			if errors.Is(err, ErrUnknownMode) {
				fmt.Fprintln(a.out, "无效选项，请重新输入。")
				continue
			}
			fmt.Fprintf(a.out, "[错误] %v\n", err)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (a *App) printMenu() {
	fmt.Fprintln(a.out, "\n请选择要运行的模式:")
	fmt.Fprintln(a.out, "1. 剪贴板轮询 (最稳定，推荐)")
	fmt.Fprintln(a.out, "2. UI Automation 轮询")
	fmt.Fprintln(a.out, "3. 全局鼠标钩子 (自动备份和恢复剪贴板)")
	fmt.Fprintln(a.out, "4. 最近捕获记录")
	fmt.Fprintln(a.out, "q. 退出")
	fmt.Fprint(a.out, "> ")
}

/**
 * RunMode 运行单个模式直到结束
 *
 * Parameters:
 *   - ctx: 上下文，取消时结束当前模式
 *   - mode: 菜单选项
 *
 * Returns:
 *   - error: 模式启动失败或运行出错
 */
func (a *App) RunMode(ctx context.Context, mode Mode) error {
	switch mode {
	case ModeClipboard:
		fmt.Fprintln(a.out, "剪贴板轮询模式已启动。")
		fmt.Fprintln(a.out, "请在任何地方复制文本 (Ctrl+C)，这里会显示出来。按 Ctrl+C 返回菜单。")
		interval, _ := a.config.ClipboardWatch.IntervalDuration()
		return a.runMonitor(ctx, monitor.NewClipboardWatcher(a.eventBus, a.platform.Clipboard, interval))

	case ModeAccessibility:
		fmt.Fprintln(a.out, "UI Automation 轮询模式已启动。")
		fmt.Fprintln(a.out, "切换窗口或选中文本，这里会显示焦点元素和指针下元素的文本。按 Ctrl+C 返回菜单。")
		return a.runMonitor(ctx, monitor.NewAccessibilityPoller(a.eventBus, a.platform.Accessibility, monitor.PollInterval))

	case ModeHook:
		return a.runHook(ctx)

	case ModeHistory:
		return a.ShowRecent()

	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
}

// runMonitor 启动轮询监控器，Ctrl+C 或 ctx 取消时停止
func (a *App) runMonitor(ctx context.Context, m monitor.Monitor) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return m.Stop()
}

// runHook 运行全局钩子捕获引擎
func (a *App) runHook(ctx context.Context) error {
	fmt.Fprintln(a.out, "全局鼠标钩子模式已启动。")
	fmt.Fprintln(a.out, "请在任何地方用鼠标选中一段文本，然后松开左键。")
	fmt.Fprintln(a.out, "程序会自动备份和恢复你的剪贴板内容，300ms 内的连续点击会被忽略。")
	fmt.Fprintln(a.out, "退出方式：按 ESC 键返回菜单，或关闭此控制台窗口。")

	engine := capture.NewEngine(capture.Dependencies{
		Hooks:     a.platform.NewHookHost(),
		Keys:      a.platform.Keys,
		Clipboard: a.platform.Clipboard,
		Signals:   a.platform.NewSignalHost(),
		Bus:       a.eventBus,
	})

	if err := engine.Run(ctx); err != nil {
		return fmt.Errorf("全局钩子模式运行失败: %w", err)
	}
	return nil
}

/**
 * ShowRecent 输出最近的捕获记录
 *
 * Returns:
 *   - error: 查询失败时返回错误
 */
func (a *App) ShowRecent() error {
	if a.captures == nil {
		fmt.Fprintln(a.out, "捕获历史未启用。")
		return nil
	}

	limit := a.config.Capture.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	recent, err := a.captures.FindRecent(limit)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Fprintln(a.out, "暂无捕获记录。")
		return nil
	}

	counts, err := a.captures.CountBySource()
	if err == nil {
		fmt.Fprintf(a.out, "按来源统计: %s\n", formatCounts(counts))
	}

	for _, c := range recent {
		fmt.Fprintf(a.out, "[%s] %-14s %s\n",
			c.CapturedAt.Local().Format("2006-01-02 15:04:05"),
			c.Source,
			truncate(strings.ReplaceAll(c.Text, "\n", " "), 60),
		)
	}
	return nil
}

// formatCounts 按固定来源顺序输出统计
func formatCounts(counts map[string]int64) string {
	order := []events.Source{
		events.SourceHook,
		events.SourceAccessibility,
		events.SourcePointerProbe,
		events.SourceClipboard,
	}
	parts := make([]string, 0, len(order))
	for _, source := range order {
		if n, ok := counts[string(source)]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", source, n))
		}
	}
	return strings.Join(parts, " ")
}
