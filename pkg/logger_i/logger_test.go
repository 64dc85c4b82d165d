package logger_i

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelsAndSource(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", false)

	log := NewLogger("test").With("traceId", "abc")
	log.Debug("hidden")
	log.Warn("visible", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered at info level: %s", out)
	}
	for _, want := range []string{"visible", "component=test", "traceId=abc", "key=value", "source=logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", true)

	NewLogger("json").Info("hello")
	if !strings.Contains(buf.String(), `"component":"json"`) {
		t.Errorf("expected JSON output, got %s", buf.String())
	}
}
