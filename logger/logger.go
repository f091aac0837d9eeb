package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	zapLog  *zap.Logger = zap.NewNop()
	logFile *lumberjack.Logger
)

// FileOptions sends a JSON copy of every entry to a rotating file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

func InitLogger(level zapcore.Level, file ...FileOptions) error {

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level) // Set to desired level

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("Jan _2 15:04:05.000000000")
	encoderConfig.StacktraceKey = "" // to hide stacktrace info
	config.EncoderConfig = encoderConfig

	opts := []zap.Option{zap.AddCallerSkip(1)}
	logFile = nil

	if len(file) > 0 && file[0].Path != "" {
		logFile = &lumberjack.Logger{
			Filename:   file[0].Path,
			MaxSize:    file[0].MaxSizeMB,
			MaxBackups: file[0].MaxBackups,
		}
		fileEncoder := zap.NewProductionEncoderConfig()
		fileEncoder.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoder), zapcore.AddSync(logFile), config.Level)

		opts = append(opts, zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, fileCore)
		}))
	}

	l, err := config.Build(opts...)
	if err != nil {
		return err
	}
	zapLog = l
	return nil
}

// L returns the underlying logger for packages that need one of their own.
func L() *zap.Logger {
	return zapLog.WithOptions(zap.AddCallerSkip(-1))
}

func Info(message string, fields ...zap.Field) {
	zapLog.Info(message, fields...)
}

func Warn(message string, fields ...zap.Field) {
	zapLog.Warn(message, fields...)
}

func Debug(message string, fields ...zap.Field) {
	zapLog.Debug(message, fields...)
}

func Error(message string, fields ...zap.Field) {
	zapLog.Error(message, fields...)
}

func Fatal(message string, fields ...zap.Field) {
	zapLog.Fatal(message, fields...)
}

// Rotate starts a new log file. Without a file sink it does nothing.
func Rotate() error {
	if logFile == nil {
		return nil
	}
	return logFile.Rotate()
}

// Sync flushes any buffered log entries
func Sync() error {
	return zapLog.Sync()
}
