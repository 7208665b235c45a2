package lang

import (
	"errors"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"python", "python"},
		{"py", "python"},
		{"PY", "python"},
		{"c++", "cpp"},
		{"  Js ", "javascript"},
		{"node", "javascript"},
		{"java", "java"},
		{"cobol", "cobol"},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveAlias(t *testing.T) {
	r := NewRegistry()
	spec, err := r.Resolve("C++")
	if err != nil {
		t.Fatalf("Resolve(C++) error: %v", err)
	}
	if spec.ID != "cpp" {
		t.Errorf("spec.ID = %q, want cpp", spec.ID)
	}
	if len(spec.CompileCommand) == 0 {
		t.Error("cpp spec has no compile command")
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("brainfuck")
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("Resolve(brainfuck) error = %v, want ErrNotSupported", err)
	}
	if r.Supported("brainfuck") {
		t.Error("Supported(brainfuck) = true")
	}
}

func TestRegistryOverride(t *testing.T) {
	r := NewRegistry(LanguageSpec{
		ID:             "Python",
		Extension:      ".py",
		SourceFileName: "main.py",
		RunCommand:     []string{"pypy3", "main.py"},
		Image:          "custom-python",
		Interpreted:    true,
	})
	spec, err := r.Resolve("py")
	if err != nil {
		t.Fatalf("Resolve(py) error: %v", err)
	}
	if spec.Image != "custom-python" {
		t.Errorf("spec.Image = %q, want custom-python", spec.Image)
	}
	if spec.SourceFileName != "main.py" {
		t.Errorf("spec.SourceFileName = %q, want main.py", spec.SourceFileName)
	}
}

func TestImagesDeduplicated(t *testing.T) {
	r := NewRegistry()
	images := r.Images()
	seen := make(map[string]int)
	for _, img := range images {
		seen[img]++
	}
	// c and cpp share an image; it must appear once.
	if seen["edplatform-judge-cpp"] != 1 {
		t.Errorf("edplatform-judge-cpp appears %d times", seen["edplatform-judge-cpp"])
	}
	if len(images) != 4 {
		t.Errorf("len(Images()) = %d, want 4", len(images))
	}
}
