package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/edplatform/judge_engine/executor/limits"
)

// ErrUnavailable marks infrastructure failures: the execution backend
// itself is broken, as opposed to the submitted code failing. Callers
// must surface these distinctly and never record them as a code verdict.
var ErrUnavailable = errors.New("judge backend unavailable")

// JudgeTask is one submission to execute. Limits are resolved once per
// submission and immutable afterward.
type JudgeTask struct {
	SubmissionID uint64
	ProblemID    uint64
	SourceCode   string
	Language     string
	Limits       limits.Resolved
}

// ExecutionOutcome is the result of running a task against one test
// case's input. It is produced once and never mutated. Code-caused
// failures (compile errors, timeouts, crashes) are outcomes; only
// backend failures travel on the error channel.
type ExecutionOutcome struct {
	Stdout        string
	Stderr        string
	Duration      time.Duration
	Success       bool
	TimedOut      bool
	CompileFailed bool
}

// Executor runs one (submission, input) pair to completion. The two
// implementations, ProcessExecutor and DockerExecutor, are
// interchangeable; the engine never branches on which one it holds.
type Executor interface {
	Run(ctx context.Context, task *JudgeTask, input string) (*ExecutionOutcome, error)
	Close(ctx context.Context) error
}

var javaPublicClassRe = regexp.MustCompile(`public\s+class\s+(\w+)`)

// rewriteJavaSource renames the public class to Solution so the run
// command never depends on a user-chosen class name. Absence of a public
// class is a validation failure reported before anything executes.
func rewriteJavaSource(source string) (string, error) {
	m := javaPublicClassRe.FindStringSubmatch(source)
	if m == nil {
		return "", errors.New("no public class found in Java source")
	}
	if m[1] == "Solution" {
		return source, nil
	}
	return strings.Replace(source, m[0], "public class Solution", 1), nil
}

// failedOutcome is the degraded result for launch failures and other
// unexpected conditions: empty stdout, descriptive stderr, zero elapsed,
// failure flag. Nothing is raised past the executor boundary for these.
func failedOutcome(reason string) *ExecutionOutcome {
	return &ExecutionOutcome{Stderr: reason}
}

// capped truncates s to max bytes. Zero max means unlimited.
func capped(s string, max int64) string {
	if max > 0 && int64(len(s)) > max {
		return s[:max]
	}
	return s
}
