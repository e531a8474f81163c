package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestObserverPosition(t *testing.T) {
	e, err := NewEngineFromSource(`
function observer_position(tick)
  return tick * SPEED, 0, -tick
end
`, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngineFromSource: %v", err)
	}
	defer e.Close()
	e.SetNumber("SPEED", 0.5)

	cases := []struct {
		tick    uint64
		x, y, z float64
	}{
		{0, 0, 0, 0},
		{4, 2, 0, -4},
		{10, 5, 0, -10},
	}
	for _, c := range cases {
		x, y, z, ok := e.ObserverPosition(c.tick)
		if !ok {
			t.Fatalf("tick %d: call failed", c.tick)
		}
		if x != c.x || y != c.y || z != c.z {
			t.Fatalf("tick %d: got (%v,%v,%v), want (%v,%v,%v)", c.tick, x, y, z, c.x, c.y, c.z)
		}
	}
}

func TestObserverPositionFailures(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing", `x = 1`},
		{"runtime_error", `function observer_position(tick) error("boom") end`},
		{"not_a_function", `observer_position = 3`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := NewEngineFromSource(c.src, zap.NewNop())
			if err != nil {
				t.Fatalf("NewEngineFromSource: %v", err)
			}
			defer e.Close()
			if _, _, _, ok := e.ObserverPosition(1); ok {
				t.Fatalf("expected failure")
			}
			// The VM stays usable after a failed call.
			if _, _, _, ok := e.ObserverPosition(2); ok {
				t.Fatalf("expected failure on second call")
			}
		})
	}
}

func TestNewEngineLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a_path.lua": `function observer_position(tick) return helper(tick), 0, 0 end`,
		"b_lib.lua":  `function helper(t) return t + 1 end`,
		"notes.txt":  `not lua`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()
	x, _, _, ok := e.ObserverPosition(4)
	if !ok || x != 5 {
		t.Fatalf("got x=%v ok=%v, want 5", x, ok)
	}

	if _, err := NewEngine(filepath.Join(dir, "missing.lua"), zap.NewNop()); err == nil {
		t.Fatalf("expected error for a missing script")
	}
}
