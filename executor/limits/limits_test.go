package limits

import (
	"testing"
	"time"
)

func TestTimeLimitPrecedence(t *testing.T) {
	r := NewResolver(Config{
		TimeLimitOverrides: map[string]int{"cpp": 3},
	})
	tests := []struct {
		name     string
		language string
		override int
		want     time.Duration
	}{
		{"problem override wins", "cpp", 7, 7 * time.Second},
		{"config override beats language default", "cpp", 0, 3 * time.Second},
		{"language default", "java", 0, 8 * time.Second},
		{"alias resolves before lookup", "py", 0, 10 * time.Second},
		{"unknown language falls back to global", "cobol", 0, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.TimeLimit(tt.language, tt.override); got != tt.want {
				t.Errorf("TimeLimit(%q, %d) = %v, want %v", tt.language, tt.override, got, tt.want)
			}
		})
	}
}

func TestMemoryLimitParsing(t *testing.T) {
	r := NewResolver(Config{})
	tests := []struct {
		override string
		want     int64
	}{
		{"128m", 128 * 1024 * 1024},
		{"256M", 256 * 1024 * 1024},
		{"1g", 1024 * 1024 * 1024},
		{"64k", 64 * 1024},
		{"512", 512},
	}
	for _, tt := range tests {
		got, err := r.MemoryLimit("cpp", tt.override)
		if err != nil {
			t.Errorf("MemoryLimit(cpp, %q) error: %v", tt.override, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MemoryLimit(cpp, %q) = %d, want %d", tt.override, got, tt.want)
		}
	}
}

func TestMemoryLimitMalformed(t *testing.T) {
	r := NewResolver(Config{})
	if _, err := r.MemoryLimit("cpp", "lots"); err == nil {
		t.Fatal("MemoryLimit(cpp, lots) returned nil error")
	}
}

func TestMemoryLimitDefaults(t *testing.T) {
	r := NewResolver(Config{})
	got, err := r.MemoryLimit("java", "")
	if err != nil {
		t.Fatalf("MemoryLimit(java) error: %v", err)
	}
	if want := int64(512 * 1024 * 1024); got != want {
		t.Errorf("MemoryLimit(java) = %d, want %d", got, want)
	}

	got, err = r.MemoryLimit("cobol", "")
	if err != nil {
		t.Fatalf("MemoryLimit(cobol) error: %v", err)
	}
	if want := int64(128 * 1024 * 1024); got != want {
		t.Errorf("MemoryLimit(cobol) = %d, want %d", got, want)
	}
}

func TestCompileTimeout(t *testing.T) {
	r := NewResolver(Config{})
	if d, ok := r.CompileTimeout("python"); ok {
		t.Errorf("CompileTimeout(python) = (%v, true), want no compile step", d)
	}
	d, ok := r.CompileTimeout("java")
	if !ok || d != 20*time.Second {
		t.Errorf("CompileTimeout(java) = (%v, %v), want (20s, true)", d, ok)
	}
	d, ok = r.CompileTimeout("cobol")
	if !ok || d != 15*time.Second {
		t.Errorf("CompileTimeout(cobol) = (%v, %v), want (15s, true)", d, ok)
	}
}

func TestResolve(t *testing.T) {
	r := NewResolver(Config{MaxOutputSizeBytes: 2048})
	resolved, err := r.Resolve("cpp", 0, "")
	if err != nil {
		t.Fatalf("Resolve(cpp) error: %v", err)
	}
	if resolved.TimeLimit != 5*time.Second {
		t.Errorf("TimeLimit = %v, want 5s", resolved.TimeLimit)
	}
	if resolved.MemoryBytes != 128*1024*1024 {
		t.Errorf("MemoryBytes = %d, want %d", resolved.MemoryBytes, 128*1024*1024)
	}
	if resolved.CompileTimeout != 15*time.Second {
		t.Errorf("CompileTimeout = %v, want 15s", resolved.CompileTimeout)
	}
	if resolved.MaxSourceSize != DefaultMaxSourceSize {
		t.Errorf("MaxSourceSize = %d, want %d", resolved.MaxSourceSize, DefaultMaxSourceSize)
	}
	if resolved.MaxOutputSize != 2048 {
		t.Errorf("MaxOutputSize = %d, want 2048", resolved.MaxOutputSize)
	}

	if _, err = r.Resolve("cpp", 0, "banana"); err == nil {
		t.Fatal("Resolve with malformed memory override returned nil error")
	}
}
