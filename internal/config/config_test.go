package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Canvas.Width != 280 || cfg.Canvas.Height != 280 {
		t.Errorf("canvas defaults = %dx%d, want 280x280", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.BrushWidth != 18 {
		t.Errorf("BrushWidth = %v, want 18", cfg.Canvas.BrushWidth)
	}
	if cfg.Model.Path != "models/mnist-mlp.mnet" {
		t.Errorf("Model.Path = %q, want default", cfg.Model.Path)
	}
	if cfg.TTS.Engine != "edge" {
		t.Errorf("TTS.Engine = %q, want edge", cfg.TTS.Engine)
	}
	if cfg.TTS.Edge.Voice != "zh-CN-XiaoxiaoNeural" {
		t.Errorf("TTS.Edge.Voice = %q, want default voice", cfg.TTS.Edge.Voice)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.History.DBPath == "" {
		t.Error("History.DBPath should get a default")
	}
}

func TestSetDefaults_DoesNotOverride(t *testing.T) {
	cfg := &Config{
		Canvas: CanvasConfig{Width: 560, Height: 420, BrushWidth: 24},
		Model:  ModelConfig{Path: "custom.mnet", Name: "custom"},
		TTS:    TTSConfig{Engine: "say", Edge: EdgeConfig{Voice: "en-US-AriaNeural"}},
		Log:    LogConfig{Level: "debug"},
	}
	setDefaults(cfg)

	if cfg.Canvas.Width != 560 || cfg.Canvas.Height != 420 {
		t.Errorf("canvas size should not be overridden: %dx%d", cfg.Canvas.Width, cfg.Canvas.Height)
	}
	if cfg.Canvas.BrushWidth != 24 {
		t.Errorf("BrushWidth should not be overridden: %v", cfg.Canvas.BrushWidth)
	}
	if cfg.Model.Path != "custom.mnet" {
		t.Errorf("Model.Path should not be overridden: %q", cfg.Model.Path)
	}
	if cfg.TTS.Engine != "say" {
		t.Errorf("TTS.Engine should not be overridden: %q", cfg.TTS.Engine)
	}
	if cfg.TTS.Edge.Voice != "en-US-AriaNeural" {
		t.Errorf("TTS.Edge.Voice should not be overridden: %q", cfg.TTS.Edge.Voice)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level should not be overridden: %q", cfg.Log.Level)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	yamlContent := `
canvas:
  width: 336
  height: 336
  brush_width: 20
model:
  path: /models/digits.mnet
  name: Digits
tts:
  engine: "off"
history:
  enabled: true
  db_path: /tmp/inkdigit-test.db
log:
  level: debug
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Canvas.Width != 336 {
		t.Errorf("Canvas.Width: got %d, want 336", cfg.Canvas.Width)
	}
	if cfg.Model.Name != "Digits" {
		t.Errorf("Model.Name: got %q, want Digits", cfg.Model.Name)
	}
	if cfg.TTS.Engine != "off" {
		t.Errorf("TTS.Engine: got %q, want off", cfg.TTS.Engine)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled should be true")
	}
	// 未设置的字段应用默认值
	if cfg.TTS.Edge.Voice == "" {
		t.Error("TTS.Edge.Voice should get a default")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("INKDIGIT_TEST_MODEL", "/opt/models/env.mnet")

	yamlContent := `
model:
  path: "${INKDIGIT_TEST_MODEL}"
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(tmpFile, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.Path != "/opt/models/env.mnet" {
		t.Errorf("expected env var expansion, got %q", cfg.Model.Path)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestSetDefaults_ExpandsHomeInDBPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory available")
	}

	cfg := &Config{History: HistoryConfig{DBPath: "~/custom/history.db"}}
	setDefaults(cfg)

	if strings.HasPrefix(cfg.History.DBPath, "~") {
		t.Errorf("~ should be expanded, got %q", cfg.History.DBPath)
	}
	if !strings.HasPrefix(cfg.History.DBPath, home) {
		t.Errorf("path should start with home dir, got %q", cfg.History.DBPath)
	}
}
