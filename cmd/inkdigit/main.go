package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iabetor/inkdigit/internal/config"
	"github.com/iabetor/inkdigit/internal/logger"
	"github.com/iabetor/inkdigit/internal/ui"
)

func main() {
	configPath := flag.String("config", "configs/inkdigit.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Infof("[main] inkdigit 启动中 (model=%s tts=%s)", cfg.Model.Path, cfg.TTS.Engine)

	app, err := ui.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "创建应用失败: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "运行出错: %v\n", err)
		os.Exit(1)
	}

	logger.Infof("[main] inkdigit 已退出")
}

// loadConfig 配置文件不存在时回落到默认配置，画板无需配置即可使用。
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}
