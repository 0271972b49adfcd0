/**
 * selgrab 主入口文件
 *
 * 负责：
 * 1. 解析命令行参数并加载配置
 * 2. 初始化日志系统
 * 3. 创建 App 实例并运行菜单或指定模式
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chenyang-zz/selgrab/internal/app"
	"github.com/chenyang-zz/selgrab/internal/infrastructure/config"
	"github.com/chenyang-zz/selgrab/pkg/logger"
	"go.uber.org/zap"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认 ~/.selgrab/config.yaml）")
	mode := flag.String("mode", "", "直接运行指定模式（1/2/3/4），不显示菜单")
	showVersion := flag.Bool("version", false, "输出版本号并退出")
	flag.Parse()

	if *showVersion {
		fmt.Println("selgrab", version)
		return
	}

	if err := run(*configPath, *mode); err != nil {
		fmt.Fprintf(os.Stderr, "selgrab: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, mode string) error {
	if configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = path
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env := "production"
	if cfg.Application.Debug {
		env = "development"
	}
	if err := logger.InitWithOptions(logger.Options{
		Env:        env,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File.Path,
		MaxSizeMB:  cfg.Logging.File.MaxSize,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAgeDays: cfg.Logging.File.MaxAge,
		Compress:   cfg.Logging.File.Compress,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("selgrab 启动",
		zap.String("version", version),
		zap.String("config", configPath),
	)

	a := app.New(cfg)
	if err := a.Startup(); err != nil {
		return err
	}
	defer a.Shutdown()

	ctx := context.Background()
	if mode != "" {
		return a.RunMode(ctx, app.Mode(mode))
	}
	return a.RunMenu(ctx, os.Stdin)
}
