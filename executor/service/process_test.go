package service

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	loggerv2 "github.com/to404hanga/pkg404/logger/v2"

	"github.com/edplatform/judge_engine/executor/lang"
	"github.com/edplatform/judge_engine/executor/limits"
)

func newProcessExecutor() *ProcessExecutor {
	return NewProcessExecutor(loggerv2.GetGlobalLogger(), lang.NewRegistry(), 1024*1024)
}

func pythonTask(source string, timeLimit time.Duration) *JudgeTask {
	return &JudgeTask{
		SubmissionID: 1,
		Language:     "python",
		SourceCode:   source,
		Limits: limits.Resolved{
			TimeLimit:     timeLimit,
			MemoryBytes:   256 * 1024 * 1024,
			MaxOutputSize: 1024 * 1024,
		},
	}
}

func TestProcessRunUnknownLanguage(t *testing.T) {
	outcome, err := newProcessExecutor().Run(context.Background(), &JudgeTask{
		Language:   "cobol",
		SourceCode: "DISPLAY 'HELLO'",
		Limits:     limits.Resolved{TimeLimit: time.Second},
	}, "")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Success {
		t.Error("unknown language reported success")
	}
	if outcome.Stderr == "" {
		t.Error("unknown language outcome carries no reason")
	}
}

func TestProcessRunJavaWithoutPublicClass(t *testing.T) {
	outcome, err := newProcessExecutor().Run(context.Background(), &JudgeTask{
		Language:   "java",
		SourceCode: "class Helper { }",
		Limits:     limits.Resolved{TimeLimit: time.Second, CompileTimeout: 10 * time.Second},
	}, "")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Success {
		t.Error("java source without public class reported success")
	}
}

func TestProcessRunPython(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	outcome, err := newProcessExecutor().Run(context.Background(),
		pythonTask("n = int(input())\nprint(n * 2)", 10*time.Second), "21\n")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("run failed: %s", outcome.Stderr)
	}
	if got := strings.TrimSpace(outcome.Stdout); got != "42" {
		t.Errorf("stdout = %q, want 42", got)
	}
	if outcome.Duration <= 0 {
		t.Error("Duration not recorded")
	}
}

func TestProcessRunPythonRuntimeError(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	outcome, err := newProcessExecutor().Run(context.Background(),
		pythonTask("raise RuntimeError('boom')", 10*time.Second), "")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if outcome.Success {
		t.Error("crashing program reported success")
	}
	if !strings.Contains(outcome.Stderr, "boom") {
		t.Errorf("stderr = %q, want traceback", outcome.Stderr)
	}
}

func TestProcessRunPythonTimeout(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}
	limit := 1 * time.Second
	start := time.Now()
	outcome, err := newProcessExecutor().Run(context.Background(),
		pythonTask("while True:\n    pass", limit), "")
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !outcome.TimedOut {
		t.Fatal("runaway program not reported as timed out")
	}
	if outcome.Duration != limit {
		t.Errorf("Duration = %v, want the imposed limit %v", outcome.Duration, limit)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("kill took %v, process group not reaped", elapsed)
	}
}
