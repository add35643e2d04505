package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/iabetor/inkdigit/internal/audio"
	"github.com/iabetor/inkdigit/internal/logger"
)

// saySampleRate 是 afconvert 输出使用的采样率。
const saySampleRate = 22050

// SayEngine 使用 macOS 内置 say 命令合成语音，作为离线备用方案。
// 仅在 macOS 上可用。
type SayEngine struct {
	voice string // macOS 语音名称，为空则使用系统默认
}

// NewSayEngine 创建 macOS say TTS 引擎。
func NewSayEngine(voice string) *SayEngine {
	return &SayEngine{voice: voice}
}

// Synthesize 调用 say 生成 AIFF，再用 afconvert 转为 16-bit LE 单声道 PCM。
func (s *SayEngine) Synthesize(ctx context.Context, text string) ([]float32, int, error) {
	logger.Debugf("[tts] say: 合成 %d 个字符", len([]rune(text)))

	tmp, err := os.CreateTemp("", "inkdigit-say-*.aiff")
	if err != nil {
		return nil, 0, fmt.Errorf("[tts] say: 创建临时文件失败: %w", err)
	}
	aiffPath := tmp.Name()
	tmp.Close()
	defer os.Remove(aiffPath)

	rawPath := aiffPath + ".raw"
	defer os.Remove(rawPath)

	args := []string{"-o", aiffPath}
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, "say", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("[tts] say 执行失败: %w, stderr: %s", err, stderr.String())
	}

	convert := exec.CommandContext(ctx, "afconvert",
		"-f", "WAVE",
		"-d", fmt.Sprintf("LEI16@%d", saySampleRate),
		"-c", "1",
		aiffPath, rawPath,
	)
	var convStderr bytes.Buffer
	convert.Stderr = &convStderr
	if err := convert.Run(); err != nil {
		return nil, 0, fmt.Errorf("[tts] afconvert 执行失败: %w, stderr: %s", err, convStderr.String())
	}

	wav, err := os.ReadFile(rawPath)
	if err != nil {
		return nil, 0, fmt.Errorf("[tts] say: 读取输出文件失败: %w", err)
	}
	// 跳过 44 字节 WAV 头
	if len(wav) <= 44 {
		return nil, 0, fmt.Errorf("[tts] say: 未收到音频数据")
	}
	samples := audio.BytesToFloat32(wav[44:])

	logger.Debugf("[tts] say: 生成 %d 个样本", len(samples))
	return samples, saySampleRate, nil
}
