package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestTrimHandler_TrimsNoisyKeys tests that payload-carrying keys are
// cut to a short preview.
func TestTrimHandler_TrimsNoisyKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantTrim bool
	}{
		{
			name:     "probe key is trimmed",
			key:      "probe",
			value:    strings.Repeat("SCAN(V=7.80%E=4)", 20),
			wantTrim: true,
		},
		{
			name:     "Probe key (uppercase) is trimmed",
			key:      "Probe",
			value:    strings.Repeat("SCAN(V=7.80%E=4)", 20),
			wantTrim: true,
		},
		{
			name:     "fingerprint key is trimmed",
			key:      "fingerprint",
			value:    strings.Repeat("SEQ(SP=FF)", 20),
			wantTrim: true,
		},
		{
			name:     "document key is trimmed",
			key:      "document",
			value:    strings.Repeat("{\"osmatches\":[]}", 20),
			wantTrim: true,
		},
		{
			name:     "short probe value passes through",
			key:      "probe",
			value:    "SEQ(SP=FF)",
			wantTrim: false,
		},
		{
			name:     "host key is untouched",
			key:      "host",
			value:    "db01.internal",
			wantTrim: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("test", tt.key, tt.value)

			output := buf.String()
			if tt.wantTrim {
				if !strings.Contains(output, TruncationMarker) {
					t.Errorf("expected output to contain %q, got %q", TruncationMarker, output)
				}
				if strings.Contains(output, tt.value) {
					t.Error("expected the full value to be absent from output")
				}
			} else {
				if strings.Contains(output, TruncationMarker) {
					t.Errorf("expected no truncation marker, got %q", output)
				}
				if !strings.Contains(output, tt.value) {
					t.Errorf("expected output to contain %q, got %q", tt.value, output)
				}
			}
		})
	}
}

// TestTrimHandler_TrimsOversizedValues tests the general length limit.
func TestTrimHandler_TrimsOversizedValues(t *testing.T) {
	t.Parallel()

	t.Run("value over the limit is cut", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("test", "detail", strings.Repeat("x", MaxValueLen+50))

		if !strings.Contains(buf.String(), TruncationMarker) {
			t.Errorf("expected output to contain %q, got %q", TruncationMarker, buf.String())
		}
	})

	t.Run("value at the limit passes through", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

		logger.Info("test", "detail", strings.Repeat("x", MaxValueLen))

		if strings.Contains(buf.String(), TruncationMarker) {
			t.Errorf("expected no truncation marker, got %q", buf.String())
		}
	})
}

// TestTrimHandler_CollapsesLineBreaks tests that CRLF-separated payloads
// stay on one record line.
func TestTrimHandler_CollapsesLineBreaks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("test", "probe", "SCAN(V=7.80)\r\nSEQ(SP=FF)")

	output := buf.String()
	if strings.Contains(output, "SCAN(V=7.80)\r\nSEQ(SP=FF)") {
		t.Error("expected CRLF to be collapsed")
	}
	if !strings.Contains(output, "SCAN(V=7.80) SEQ(SP=FF)") {
		t.Errorf("expected collapsed value in output, got %q", output)
	}
}

// TestTrimHandler_HandlesGroups tests recursive trimming inside groups.
func TestTrimHandler_HandlesGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("test", slog.Group("scan",
		slog.String("probe", strings.Repeat("SEQ(SP=FF)", 20)),
		slog.String("host", "db01.internal"),
	))

	output := buf.String()
	if !strings.Contains(output, TruncationMarker) {
		t.Errorf("expected grouped probe to be trimmed, got %q", output)
	}
	if !strings.Contains(output, "db01.internal") {
		t.Errorf("expected grouped host to pass through, got %q", output)
	}
}

// TestTrimHandler_WithAttrs tests that pre-bound attributes are trimmed.
func TestTrimHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

	bound := logger.With("fingerprint", strings.Repeat("SEQ(SP=FF)", 20))
	bound.Info("test")

	if !strings.Contains(buf.String(), TruncationMarker) {
		t.Errorf("expected bound attribute to be trimmed, got %q", buf.String())
	}
}

// TestTrimHandler_LeavesNonStringValues tests that numeric values pass
// through untouched.
func TestTrimHandler_LeavesNonStringValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewTrimHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("test", "accuracy", 95, "line", 52000)

	output := buf.String()
	if !strings.Contains(output, "accuracy=95") {
		t.Errorf("expected accuracy attribute verbatim, got %q", output)
	}
	if !strings.Contains(output, "line=52000") {
		t.Errorf("expected line attribute verbatim, got %q", output)
	}
}

// TestNewLogger tests logger construction and level selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("default level suppresses info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, false)

		logger.Info("hidden")
		logger.Warn("visible")

		output := buf.String()
		if strings.Contains(output, "hidden") {
			t.Error("expected info record to be suppressed")
		}
		if !strings.Contains(output, "visible") {
			t.Errorf("expected warn record in output, got %q", output)
		}
	})

	t.Run("verbose level passes debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, true)

		logger.Debug("visible")

		if !strings.Contains(buf.String(), "visible") {
			t.Errorf("expected debug record in output, got %q", buf.String())
		}
	})
}

// TestNewJSONLogger tests the JSON variant.
func TestNewJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, true)

	logger.Info("test", "host", "db01.internal")

	output := buf.String()
	if !strings.Contains(output, `"host":"db01.internal"`) {
		t.Errorf("expected JSON attribute in output, got %q", output)
	}
	if !strings.Contains(output, `"msg":"test"`) {
		t.Errorf("expected JSON message in output, got %q", output)
	}
}
