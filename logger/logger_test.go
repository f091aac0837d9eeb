package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roaryviz.log")

	if err := InitLogger(zapcore.InfoLevel, FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1}); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	t.Cleanup(func() { logFile = nil })

	Debug("hidden")
	Info("dataset loaded", zap.String("dataset_id", "abc"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), `"dataset_id":"abc"`) {
		t.Errorf("log file misses entry: %s", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug entry written at info level")
	}

	if err := Rotate(); err != nil {
		t.Errorf("Rotate: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "roaryviz-*.log"))
	if len(matches) != 1 {
		t.Errorf("expected one rotated backup, got %v", matches)
	}
}

func TestRotateWithoutFile(t *testing.T) {
	if err := InitLogger(zapcore.WarnLevel); err != nil {
		t.Fatal(err)
	}
	if err := Rotate(); err != nil {
		t.Errorf("Rotate: %v", err)
	}
}
