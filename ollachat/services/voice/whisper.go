package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"ollachat/ollachat/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultFormat   = "webm"
	DefaultLanguage = "en"

	processTimeout = 30 * time.Second
	statusTimeout  = 5 * time.Second
)

var (
	ErrInvalidInput = errors.New("invalid audio input")
	ErrTimeout      = errors.New("process timed out")

	formatRe   = regexp.MustCompile(`^[a-zA-Z0-9]{1,10}$`)
	languageRe = regexp.MustCompile(`^[a-zA-Z-]{2,10}$`)
)

type Request struct {
	AudioData string `json:"audioData"`
	Format    string `json:"format"`
	Language  string `json:"language"`
}

type Result struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	Duration   float64 `json:"duration"`
}

type Status struct {
	WhisperAvailable bool   `json:"whisperAvailable"`
	ModelPath        string `json:"modelPath"`
	WhisperPath      string `json:"whisperPath"`
}

// Transcriber converts audio with ffmpeg and transcribes it with whisper.cpp.
type Transcriber struct {
	FFmpegPath  string
	WhisperPath string
	ModelPath   string
	TempDir     string
	// Timeout bounds each child process.
	Timeout time.Duration
}

func NewTranscriber(ffmpegPath, whisperPath, modelPath, tempDir string) *Transcriber {
	if abs, err := filepath.Abs(modelPath); err == nil {
		modelPath = abs
	}
	return &Transcriber{
		FFmpegPath:  ffmpegPath,
		WhisperPath: whisperPath,
		ModelPath:   modelPath,
		TempDir:     tempDir,
		Timeout:     processTimeout,
	}
}

// Transcribe writes the decoded audio to TempDir, converts it to 16kHz mono
// wav, runs whisper on it and returns the trimmed transcript. Every temporary
// file is removed before it returns, whatever the outcome.
func (t *Transcriber) Transcribe(ctx context.Context, req Request) (*Result, error) {
	defer logging.LogDuration(ctx, "voice_transcribe")()

	if req.AudioData == "" {
		return nil, fmt.Errorf("%w: audio data is required", ErrInvalidInput)
	}
	format := req.Format
	if format == "" {
		format = DefaultFormat
	}
	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}
	if !formatRe.MatchString(format) {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidInput, format)
	}
	if !languageRe.MatchString(language) {
		return nil, fmt.Errorf("%w: unsupported language %q", ErrInvalidInput, language)
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioData)
	if err != nil {
		return nil, fmt.Errorf("%w: audio data is not valid base64", ErrInvalidInput)
	}

	if err := os.MkdirAll(t.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	id := uuid.NewString()
	inputPath := filepath.Join(t.TempDir, fmt.Sprintf("input_%s.%s", id, format))
	wavPath := filepath.Join(t.TempDir, fmt.Sprintf("converted_%s.wav", id))
	outputBase := filepath.Join(t.TempDir, "output_"+id)
	outputTxt := outputBase + ".txt"
	defer cleanup(inputPath, wavPath, outputTxt)

	if err := os.WriteFile(inputPath, audio, 0o600); err != nil {
		return nil, fmt.Errorf("write input file: %w", err)
	}

	if _, err := t.run(ctx, "ffmpeg", t.FFmpegPath,
		"-y", "-i", inputPath,
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		wavPath,
	); err != nil {
		return nil, err
	}
	if _, err := os.Stat(wavPath); err != nil {
		return nil, fmt.Errorf("ffmpeg produced no wav file: %w", err)
	}

	if _, err := t.run(ctx, "whisper", t.WhisperPath,
		"-m", t.ModelPath,
		"-f", wavPath,
		"-otxt",
		"-of", outputBase,
		"-l", language,
	); err != nil {
		return nil, err
	}
	text, err := os.ReadFile(outputTxt)
	if err != nil {
		return nil, fmt.Errorf("output file not found: %w", err)
	}

	return &Result{
		Text:       strings.TrimSpace(string(text)),
		Language:   language,
		Confidence: 0.9,
		Duration:   0,
	}, nil
}

// Status reports whether `whisper --help` succeeds within five seconds.
func (t *Transcriber) Status(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, t.WhisperPath, "--help")
	cmd.WaitDelay = time.Second
	available := cmd.Run() == nil
	return Status{
		WhisperAvailable: available,
		ModelPath:        t.ModelPath,
		WhisperPath:      t.WhisperPath,
	}
}

func (t *Transcriber) run(ctx context.Context, name, bin string, args ...string) (string, error) {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = processTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		logging.ErrorLogger.Error("child process timed out", zap.String("process", name), zap.Duration("timeout", timeout))
		return "", fmt.Errorf("%s: %w after %s", name, ErrTimeout, timeout)
	}
	if err != nil {
		logging.ErrorLogger.Error("child process failed",
			zap.String("process", name),
			zap.Error(err),
			zap.String("stderr", tail(stderr.String(), 2048)),
		)
		return "", fmt.Errorf("%s process failed: %w: %s", name, err, tail(stderr.String(), 512))
	}
	logging.AppLogger.Debug("child process finished", zap.String("process", name))
	return stdout.String(), nil
}

func cleanup(paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.AppLogger.Warn("failed to clean up temporary file", zap.String("path", p), zap.Error(err))
		}
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
