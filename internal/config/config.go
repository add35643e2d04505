package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 inkdigit 的顶层配置结构。
type Config struct {
	Canvas  CanvasConfig  `yaml:"canvas"`
	Model   ModelConfig   `yaml:"model"`
	TTS     TTSConfig     `yaml:"tts"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// CanvasConfig 画板配置。
type CanvasConfig struct {
	// Width/Height 画板栅格分辨率（像素）。
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// BrushWidth 画笔宽度（像素），圆头圆角粗线。
	BrushWidth float64 `yaml:"brush_width"`
}

// ModelConfig 分类模型配置。
type ModelConfig struct {
	// Path 模型权重文件路径（MNET 二进制格式）。
	Path string `yaml:"path"`
	// Name 展示用的模型名称，为空则使用权重文件名。
	Name string `yaml:"name"`
}

// TTSConfig 语音播报配置。
type TTSConfig struct {
	// Engine 播报后端：edge、say 或 off（关闭播报）。
	Engine string     `yaml:"engine"`
	Edge   EdgeConfig `yaml:"edge"`
	Say    SayConfig  `yaml:"say"`
}

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	Voice string `yaml:"voice"`
}

// SayConfig macOS say 配置。
type SayConfig struct {
	Voice string `yaml:"voice"`
}

// HistoryConfig 识别历史记录配置。
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// Default 返回全部使用默认值的配置，供无配置文件时启动使用。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Canvas.Width == 0 {
		cfg.Canvas.Width = 280
	}
	if cfg.Canvas.Height == 0 {
		cfg.Canvas.Height = 280
	}
	if cfg.Canvas.BrushWidth == 0 {
		cfg.Canvas.BrushWidth = 18
	}
	if cfg.Model.Path == "" {
		cfg.Model.Path = "models/mnist-mlp.mnet"
	}
	if cfg.TTS.Engine == "" {
		cfg.TTS.Engine = "edge"
	}
	if cfg.TTS.Edge.Voice == "" {
		cfg.TTS.Edge.Voice = "zh-CN-XiaoxiaoNeural"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.History.DBPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.DBPath = home + "/.inkdigit/history.db"
		} else {
			cfg.History.DBPath = "./inkdigit-history.db"
		}
	} else if strings.HasPrefix(cfg.History.DBPath, "~/") {
		// Go 不会自动展开 ~，需要手动替换为用户主目录
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.DBPath = home + cfg.History.DBPath[1:]
		}
	}
}
