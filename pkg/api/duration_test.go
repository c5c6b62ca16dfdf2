package api

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDurationJSON_String(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"8s"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Std() != 8*time.Second {
		t.Fatalf("got %v, want 8s", d.Std())
	}

	out, err := json.Marshal(Duration(250 * time.Millisecond))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"250ms"` {
		t.Fatalf("marshal = %s", out)
	}
}

func TestDurationJSON_NumberIsSeconds(t *testing.T) {
	// Recorded documents carry numeric timeouts in seconds.
	var d Duration
	if err := json.Unmarshal([]byte(`2.5`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Std() != 2500*time.Millisecond {
		t.Fatalf("got %v, want 2.5s", d.Std())
	}
}

func TestDurationJSON_Invalid(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Fatalf("expected error for unparsable duration")
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Fatalf("expected error for boolean duration")
	}
}

func TestDurationYAML(t *testing.T) {
	var s struct {
		Timeout Duration `yaml:"timeout"`
	}
	if err := yaml.Unmarshal([]byte("timeout: 1m30s\n"), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Timeout.Std() != 90*time.Second {
		t.Fatalf("got %v, want 90s", s.Timeout.Std())
	}

	if err := yaml.Unmarshal([]byte("timeout: 3\n"), &s); err != nil {
		t.Fatalf("unmarshal numeric: %v", err)
	}
	if s.Timeout.Std() != 3*time.Second {
		t.Fatalf("got %v, want 3s", s.Timeout.Std())
	}

	out, err := yaml.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "timeout: 3s\n" {
		t.Fatalf("marshal = %q", out)
	}
}
