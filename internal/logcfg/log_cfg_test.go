package logcfg

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", filepath.Join(t.TempDir(), "bot.log"))
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", logger.GetLevel())
	}
	if !logger.ReportCaller {
		t.Error("caller reporting is off")
	}
}

func TestNewLoggerBadLevel(t *testing.T) {
	if _, err := NewLogger("loud", ""); err == nil {
		t.Fatal("NewLogger accepted an unknown level")
	}
}

func TestCallerPrettyfier(t *testing.T) {
	fn, file := callerPrettyfier(&runtime.Frame{
		File:     "/src/internal/tg_bot/service/tg_bot.go",
		Line:     42,
		Function: "github.com/DenisKhanov/HashieldBot/internal/tg_bot/service.(*TgBotServices).UpdateProcessing",
	})
	if fn != "" || file != "tg_bot.go.42.service.(*TgBotServices).UpdateProcessing" {
		t.Errorf("callerPrettyfier = %q, %q", fn, file)
	}
}
