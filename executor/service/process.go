package service

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/edplatform/judge_engine/executor/lang"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// ProcessExecutor runs submissions directly as child OS processes. It
// enforces the wall-clock time limit by killing the whole process group
// but provides no memory isolation beyond OS defaults; it is the fast
// path for trusted deployments, while DockerExecutor is the hardened one.
type ProcessExecutor struct {
	log       loggerv2.Logger
	registry  *lang.Registry
	maxOutput int64
}

func NewProcessExecutor(log loggerv2.Logger, registry *lang.Registry, maxOutputSize int64) *ProcessExecutor {
	return &ProcessExecutor{
		log:       log,
		registry:  registry,
		maxOutput: maxOutputSize,
	}
}

func (e *ProcessExecutor) Run(ctx context.Context, task *JudgeTask, input string) (*ExecutionOutcome, error) {
	spec, err := e.registry.Resolve(task.Language)
	if err != nil {
		return failedOutcome(err.Error()), nil
	}

	source := task.SourceCode
	if spec.ID == "java" {
		if source, err = rewriteJavaSource(source); err != nil {
			return failedOutcome(err.Error()), nil
		}
	}

	workDir, err := os.MkdirTemp("", "judge-run-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create work dir: %v", ErrUnavailable, err)
	}
	defer os.RemoveAll(workDir)

	if err = os.WriteFile(filepath.Join(workDir, spec.SourceFileName), []byte(source), 0644); err != nil {
		return nil, fmt.Errorf("%w: write source: %v", ErrUnavailable, err)
	}

	if len(spec.CompileCommand) > 0 {
		if outcome := e.compile(ctx, spec, workDir, task.Limits.CompileTimeout); outcome != nil {
			return outcome, nil
		}
	}

	return e.execute(spec, workDir, input, task.Limits.TimeLimit), nil
}

// compile runs the compile step bounded by the compile timeout. A nil
// return means compilation succeeded and the run step may proceed.
func (e *ProcessExecutor) compile(ctx context.Context, spec lang.LanguageSpec, workDir string, timeout time.Duration) *ExecutionOutcome {
	compileCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := exec.LookPath(spec.CompileCommand[0]); err != nil {
		return failedOutcome(fmt.Sprintf("compiler %s not found", spec.CompileCommand[0]))
	}

	cmd := exec.CommandContext(compileCtx, spec.CompileCommand[0], spec.CompileCommand[1:]...)
	cmd.Dir = workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if compileCtx.Err() == context.DeadlineExceeded {
		return &ExecutionOutcome{
			Stderr:        fmt.Sprintf("compilation timed out after %s", timeout),
			CompileFailed: true,
		}
	}
	if err != nil {
		return &ExecutionOutcome{
			Stderr:        capped(strings.TrimSpace(stderr.String()), e.maxOutput),
			CompileFailed: true,
		}
	}
	return nil
}

// execute runs the produced artifact (or interpreter plus source),
// feeding input on stdin. On timeout the entire process group is killed;
// the reported elapsed time is the imposed limit, since the real runaway
// time is never observed.
func (e *ProcessExecutor) execute(spec lang.LanguageSpec, workDir, input string, timeLimit time.Duration) *ExecutionOutcome {
	if _, err := exec.LookPath(spec.RunCommand[0]); err != nil && !strings.HasPrefix(spec.RunCommand[0], "./") {
		return failedOutcome(fmt.Sprintf("interpreter %s not found", spec.RunCommand[0]))
	}

	cmd := exec.Command(spec.RunCommand[0], spec.RunCommand[1:]...)
	cmd.Dir = workDir
	cmd.Stdin = strings.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Own process group, so a timeout kill reaps children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return failedOutcome(fmt.Sprintf("failed to start %s: %v", spec.RunCommand[0], err))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeLimit)
	defer timer.Stop()

	select {
	case err := <-done:
		return &ExecutionOutcome{
			Stdout:   capped(stdout.String(), e.maxOutput),
			Stderr:   capped(strings.TrimSpace(stderr.String()), e.maxOutput),
			Duration: time.Since(start),
			Success:  err == nil,
		}
	case <-timer.C:
		if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			_ = cmd.Process.Kill()
		}
		<-done
		return &ExecutionOutcome{
			Duration: timeLimit,
			TimedOut: true,
		}
	}
}

func (e *ProcessExecutor) Close(ctx context.Context) error { return nil }

// CheckRequirements reports which registered languages have their
// compiler or interpreter on PATH, for startup diagnostics.
func (e *ProcessExecutor) CheckRequirements() map[string]bool {
	available := make(map[string]bool)
	for _, spec := range e.registry.All() {
		ok := true
		if len(spec.CompileCommand) > 0 {
			_, err := exec.LookPath(spec.CompileCommand[0])
			ok = err == nil
		}
		if ok && !strings.HasPrefix(spec.RunCommand[0], "./") {
			_, err := exec.LookPath(spec.RunCommand[0])
			ok = err == nil
		}
		available[spec.ID] = ok
	}
	return available
}

// LogRequirements writes the probe result once at startup.
func (e *ProcessExecutor) LogRequirements(ctx context.Context) {
	for id, ok := range e.CheckRequirements() {
		if !ok {
			e.log.WarnContext(ctx, "language toolchain missing", logger.String("language", id))
		}
	}
}
