package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == "" || b == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a == b {
		t.Error("expected distinct IDs")
	}
	if len(strings.Split(a, "-")) != 5 {
		t.Errorf("expected UUID shape, got %s", a)
	}
}

func TestLogger(t *testing.T) {
	t.Run("Writes To The Given Writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output in buffer, got %q", buf.String())
		}
	})

	t.Run("WithLogger Adds Fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "queue")

		logger.Info("drained")

		out := buf.String()
		if !strings.Contains(out, "component") || !strings.Contains(out, "queue") {
			t.Errorf("expected component field in output, got %q", out)
		}
	})

	t.Run("SetLogLevel Filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.ErrorLevel)

		logger.Info("quiet")

		if strings.Contains(buf.String(), "quiet") {
			t.Error("expected info output suppressed at error level")
		}
	})
}
