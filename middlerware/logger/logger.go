package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志配置项
type Options struct {
	Path       string // 日志文件路径，为空时只输出到控制台
	Level      string // 日志级别 debug/info/warn/error
	MaxSize    int    // 单个日志文件最大体积，单位 MB
	MaxBackups int    // 保留的历史日志文件数量
	MaxAge     int    // 日志文件保留天数
}

var (
	zlog *zap.Logger
	once sync.Once
)

// Init 初始化日志组件，重复调用只有第一次生效
func Init(opts *Options) {
	once.Do(func() {
		zlog = newLogger(opts)
	})
}

func defaultLogger() *zap.Logger {
	once.Do(func() {
		zlog = newLogger(&Options{Level: "info"})
	})
	return zlog
}

func newLogger(opts *Options) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(opts.Level); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opts.Path != "" {
		// 日志文件按体积滚动，避免长期运行占满磁盘
		rotator := &lumberjack.Logger{
			Filename:   opts.Path,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   true,
		}
		syncers = append(syncers, zapcore.AddSync(rotator))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// Debug 输出 debug 级别日志
func Debug(msg string) {
	defaultLogger().Debug(msg)
}

// Info 输出 info 级别日志
func Info(msg string) {
	defaultLogger().Info(msg)
}

// Warn 输出 warn 级别日志
func Warn(msg string) {
	defaultLogger().Warn(msg)
}

// Error 输出 error 级别日志
func Error(msg string, err error) {
	if err != nil {
		defaultLogger().Error(msg, zap.Error(err))
	} else {
		defaultLogger().Error(msg)
	}
}

// Sync 刷新缓冲区，进程退出前调用
func Sync() {
	_ = defaultLogger().Sync()
}
