package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "shouting"}); err == nil {
		t.Error("invalid level accepted")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFromZerolog(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debugf("hidden %d", 1)
	logger.Infof("visible %d", 2)
	logger.Warnf("also visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message emitted at info level")
	}
	if !strings.Contains(out, "visible 2") {
		t.Error("info message missing")
	}
	if !strings.Contains(out, "also visible") {
		t.Error("warn message missing")
	}
}
