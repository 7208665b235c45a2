package casestore

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func writeCase(t *testing.T, dir string, pos int, input, output string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, strconv.Itoa(pos)+".in"), []byte(input), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, strconv.Itoa(pos)+".out"), []byte(output), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadOrdering(t *testing.T) {
	prefix := t.TempDir()
	dir := filepath.Join(prefix, "42")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	// Written out of order; 10 sorts after 2 numerically, not lexically.
	writeCase(t, dir, 10, "ten in", "ten out")
	writeCase(t, dir, 2, "two in", "two out")
	writeCase(t, dir, 1, "one in", "one out")

	cases, err := NewStore(prefix).Load(42)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cases) != 3 {
		t.Fatalf("len(cases) = %d, want 3", len(cases))
	}
	wantPos := []int{1, 2, 10}
	for i, tc := range cases {
		if tc.Position != wantPos[i] {
			t.Errorf("cases[%d].Position = %d, want %d", i, tc.Position, wantPos[i])
		}
		if tc.ProblemID != 42 {
			t.Errorf("cases[%d].ProblemID = %d, want 42", i, tc.ProblemID)
		}
		if tc.Points != 1 {
			t.Errorf("cases[%d].Points = %d, want 1", i, tc.Points)
		}
	}
	if cases[2].Input != "ten in" || cases[2].ExpectedOutput != "ten out" {
		t.Errorf("cases[2] = (%q, %q)", cases[2].Input, cases[2].ExpectedOutput)
	}
}

func TestLoadMissingExpectedOutput(t *testing.T) {
	prefix := t.TempDir()
	dir := filepath.Join(prefix, "7")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "1.in"), []byte("in"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(prefix).Load(7); err == nil {
		t.Fatal("Load with missing .out returned nil error")
	}
}

func TestLoadEmptyExpectedOutput(t *testing.T) {
	prefix := t.TempDir()
	dir := filepath.Join(prefix, "9")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeCase(t, dir, 1, "in", "")

	cases, err := NewStore(prefix).Load(9)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cases[0].ExpectedOutput != "" {
		t.Errorf("ExpectedOutput = %q, want empty", cases[0].ExpectedOutput)
	}
}

func TestLoadMissingProblem(t *testing.T) {
	if _, err := NewStore(t.TempDir()).Load(404); err == nil {
		t.Fatal("Load for absent problem returned nil error")
	}
}

func TestLoadIgnoresStrayFiles(t *testing.T) {
	prefix := t.TempDir()
	dir := filepath.Join(prefix, "3")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	writeCase(t, dir, 1, "in", "out")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "extra.in"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cases, err := NewStore(prefix).Load(3)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cases) != 1 {
		t.Errorf("len(cases) = %d, want 1", len(cases))
	}
}
