package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")
	logger.Info("hello", "component", "test")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if record["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", record["msg"])
	}
	if record["component"] != "test" {
		t.Errorf("component = %v, want test", record["component"])
	}
}

func TestNewTextFormatDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "")
	logger.Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("loud")
	if buf.Len() == 0 {
		t.Error("warn should pass at warn level")
	}
}

func TestParseLevelUnrecognized(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "bogus", "text")

	logger.Info("visible")
	if buf.Len() == 0 {
		t.Error("unrecognized level should default to info")
	}
}
