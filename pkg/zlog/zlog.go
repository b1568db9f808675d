package zlog

import (
	"os"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志初始化参数
type Options struct {
	Level      string // debug | info | warn | error
	LogPath    string // 为空时仅输出到控制台
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console 控制台输出，默认 os.Stdout；stdio 传输占用 stdout 时传 os.Stderr
	Console zapcore.WriteSyncer
}

var (
	logger *zap.Logger
	mu     sync.RWMutex
)

func init() {
	logger = newLogger(Options{Level: "info"})
}

// Init 按配置重建全局日志器
func Init(opts Options) {
	l := newLogger(opts)
	mu.Lock()
	old := logger
	logger = l
	mu.Unlock()
	if old != nil {
		_ = old.Sync()
	}
}

// ReplaceLogger 替换全局日志器，返回恢复函数（测试使用）
func ReplaceLogger(l *zap.Logger) func() {
	mu.Lock()
	old := logger
	logger = l
	mu.Unlock()
	return func() {
		mu.Lock()
		logger = old
		mu.Unlock()
	}
}

// L 获取当前日志器
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func newLogger(opts Options) *zap.Logger {
	level := parseLevel(opts.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(console), level),
	}

	if path := strings.TrimSpace(opts.LogPath); path != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		writer := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(writer), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	L().Fatal(msg, fields...)
}

// Sync 刷新缓冲区
func Sync() error {
	return L().Sync()
}
