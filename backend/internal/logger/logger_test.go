package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, ожидали %v", tt.in, got, tt.want)
		}
	}
}

func TestFileOutputRespectsLevel(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "server.log")

	cfg := FileConfig{Path: logFile, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1}
	if err := InitWithFileConfig("warn", cfg, false); err != nil {
		t.Fatalf("не удалось инициализировать логгер: %v", err)
	}

	Named("Dispatcher").Info("[Dispatcher] info line")
	Named("Dispatcher").Warn("[Dispatcher] warn line", zap.String("entity", "box-1"))
	Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("не удалось прочитать лог: %v", err)
	}
	text := string(content)

	if strings.Contains(text, "info line") {
		t.Error("info не должен попадать в лог при уровне warn")
	}
	if !strings.Contains(text, "warn line") || !strings.Contains(text, "box-1") {
		t.Errorf("ожидали warn-строку с полем entity, получили: %s", text)
	}
	if !strings.Contains(text, `"logger":"Dispatcher"`) {
		t.Errorf("ожидали имя компонента в записи, получили: %s", text)
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/katamari.log")

	if cfg.Path != "/tmp/katamari.log" {
		t.Errorf("неверный путь %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 20 || cfg.MaxBackups != 5 || cfg.MaxAgeDays != 3 || !cfg.Compress {
		t.Errorf("неожиданные значения по умолчанию: %+v", cfg)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) должен вернуть логгер")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("OrNop должен вернуть переданный логгер")
	}
}
