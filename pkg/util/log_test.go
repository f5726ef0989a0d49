package util

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// saveLoggerState saves the current logger state for restoration
func saveLoggerState() (io.Writer, logrus.Level, logrus.Formatter) {
	return Logger.Out, Logger.Level, Logger.Formatter
}

// restoreLoggerState restores the logger to its previous state
func restoreLoggerState(out io.Writer, level logrus.Level, formatter logrus.Formatter) {
	Logger.SetOutput(out)
	Logger.SetLevel(level)
	Logger.SetFormatter(formatter)
}

func TestSetLogLevel(t *testing.T) {
	out, level, formatter := saveLoggerState()
	defer restoreLoggerState(out, level, formatter)

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			err := SetLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetLogLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
		})
	}
}

func TestSetJSONFormat(t *testing.T) {
	out, level, formatter := saveLoggerState()
	defer restoreLoggerState(out, level, formatter)

	var buf bytes.Buffer
	SetLogOutput(&buf)
	SetJSONFormat()

	WithDevice("leaf1").Info("hello")
	if !strings.Contains(buf.String(), `"device":"leaf1"`) {
		t.Errorf("JSON output missing device field: %s", buf.String())
	}
}

func TestWithTest(t *testing.T) {
	entry := WithTest("leaf1", "VerifyL3MTU")
	if entry.Data["device"] != "leaf1" {
		t.Errorf("device = %v, want leaf1", entry.Data["device"])
	}
	if entry.Data["test"] != "VerifyL3MTU" {
		t.Errorf("test = %v, want VerifyL3MTU", entry.Data["test"])
	}
}

func TestWithRun(t *testing.T) {
	entry := WithRun("abc")
	if entry.Data["run"] != "abc" {
		t.Errorf("run = %v, want abc", entry.Data["run"])
	}
}
