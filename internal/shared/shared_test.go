package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestLogger(t *testing.T) {
	t.Run("WithLogger Adds Context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "platform", "spotify")
		logger.Warn("search failed", "op", "search")

		out := buf.String()
		if !strings.Contains(out, "platform=spotify") || !strings.Contains(out, "op=search") {
			t.Errorf("expected key/value context in output, got %q", out)
		}
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		tc := []struct {
			name string
			want log.Level
		}{
			{"debug", log.DebugLevel},
			{"warn", log.WarnLevel},
			{"error", log.ErrorLevel},
			{"nonsense", log.InfoLevel},
		}

		for _, tt := range tc {
			logger := NewLogger(nil)
			SetLogLevel(logger, tt.name)
			if logger.GetLevel() != tt.want {
				t.Errorf("%s: expected level %v, got %v", tt.name, tt.want, logger.GetLevel())
			}
		}
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected valid uuid, got %q: %v", id, err)
	}
	if id == GenerateID() {
		t.Error("expected unique ids")
	}
}
