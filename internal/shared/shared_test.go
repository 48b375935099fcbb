package shared

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == b {
		t.Error("consecutive ids should differ")
	}

	if len(strings.Split(a, "-")) != 5 {
		t.Errorf("expected uuid-shaped id, got %s", a)
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]any{"name": "anisync", "count": 2}

	t.Run("Compact", func(t *testing.T) {
		out, err := MarshalJSON(data, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(string(out), "\n") {
			t.Errorf("compact output should be one line, got %q", out)
		}
	})

	t.Run("Pretty", func(t *testing.T) {
		out, err := MarshalJSON(data, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(out), "\n  ") {
			t.Errorf("pretty output should be indented, got %q", out)
		}
	})

	t.Run("Unmarshalable", func(t *testing.T) {
		if _, err := MarshalJSON(func() {}, false); err == nil {
			t.Error("expected error for unmarshalable value")
		}
	})
}
