package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"

	"github.com/edplatform/judge_engine/executor/lang"
	"github.com/edplatform/judge_engine/executor/limits"
	"github.com/edplatform/judge_engine/executor/security"
	"github.com/edplatform/judge_engine/executor/service"
	"github.com/edplatform/judge_engine/model"
)

// ValidationError is a pre-execution rejection: unsupported language,
// oversized source, blocked pattern, malformed limit. Nothing executed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "submission rejected: " + e.Reason
}

// JudgeRequest is one submission together with its ordered test cases
// and optional problem-level limit overrides.
type JudgeRequest struct {
	SubmissionID        uint64
	ProblemID           uint64
	SourceCode          string
	Language            string
	TestCases           []model.TestCase
	TimeLimitOverride   int    // seconds, 0 = none
	MemoryLimitOverride string // "" = none
}

// TestResult is one classified ExecutionOutcome, preserving test case
// identity so callers can persist and display per-case results.
type TestResult struct {
	TestCaseID    uint64
	Position      int
	Status        model.Verdict
	ExecutionTime time.Duration
	ActualOutput  string
	Error         string
	Points        int
}

// JudgeVerdict aggregates one submission's run. Score is the flat
// passed/total percentage; per-test Points are carried through for
// callers that weight test cases themselves.
type JudgeVerdict struct {
	Status           model.Verdict
	PassedTests      int
	TotalTests       int
	MaxTime          time.Duration
	Score            float64
	TestResults      []TestResult
	CompilationError string
}

// Judger is the engine contract the pipeline consumes.
type Judger interface {
	Judge(ctx context.Context, req *JudgeRequest) (*JudgeVerdict, error)
	Close(ctx context.Context) error
}

// CodeJudger orchestrates a submission across its test cases on one
// execution backend. It holds no per-submission state and is safe to
// invoke concurrently; callers bound concurrency externally since every
// invocation may spawn a compiler, interpreter or container.
type CodeJudger struct {
	log       loggerv2.Logger
	executor  service.Executor
	registry  *lang.Registry
	resolver  *limits.Resolver
	validator *security.Validator
}

var _ Judger = (*CodeJudger)(nil)

func NewCodeJudger(log loggerv2.Logger, exec service.Executor, registry *lang.Registry, resolver *limits.Resolver, validator *security.Validator) *CodeJudger {
	return &CodeJudger{
		log:       log,
		executor:  exec,
		registry:  registry,
		resolver:  resolver,
		validator: validator,
	}
}

func (j *CodeJudger) Judge(ctx context.Context, req *JudgeRequest) (*JudgeVerdict, error) {
	if !j.registry.Supported(req.Language) {
		return nil, &ValidationError{Reason: fmt.Sprintf("language %q not supported", req.Language)}
	}
	if ok, reason := j.validator.Validate(req.SourceCode, req.Language); !ok {
		return nil, &ValidationError{Reason: reason}
	}

	// Limits resolve once per submission and hold for every test case.
	resolved, err := j.resolver.Resolve(req.Language, req.TimeLimitOverride, req.MemoryLimitOverride)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	task := &service.JudgeTask{
		SubmissionID: req.SubmissionID,
		ProblemID:    req.ProblemID,
		SourceCode:   req.SourceCode,
		Language:     req.Language,
		Limits:       resolved,
	}

	verdict := &JudgeVerdict{
		Status:     model.VerdictAccepted,
		TotalTests: len(req.TestCases),
	}

	for _, tc := range req.TestCases {
		outcome, err := j.executor.Run(ctx, task, tc.Input)
		if err != nil {
			// Infrastructure failure, not a property of the code.
			return nil, fmt.Errorf("execute test case %d: %w", tc.Position, err)
		}

		result := classify(outcome, tc)
		if result.ExecutionTime > verdict.MaxTime {
			verdict.MaxTime = result.ExecutionTime
		}
		if result.Status == model.VerdictAccepted {
			verdict.PassedTests++
		} else if verdict.Status == model.VerdictAccepted {
			// First non-accepted classification wins.
			verdict.Status = result.Status
		}
		verdict.TestResults = append(verdict.TestResults, result)

		// Compilation is identical across test cases; re-attempting
		// the remaining ones is wasted work.
		if result.Status == model.VerdictCompilationError {
			verdict.CompilationError = outcome.Stderr
			break
		}
	}

	if verdict.TotalTests > 0 {
		verdict.Score = float64(verdict.PassedTests) / float64(verdict.TotalTests) * 100
	}
	j.log.DebugContext(ctx, "judged submission",
		logger.String("status", string(verdict.Status)),
		logger.String("passed", fmt.Sprintf("%d/%d", verdict.PassedTests, verdict.TotalTests)))
	return verdict, nil
}

// classify maps one ExecutionOutcome onto the closed verdict set.
func classify(outcome *service.ExecutionOutcome, tc model.TestCase) TestResult {
	result := TestResult{
		TestCaseID:    tc.ID,
		Position:      tc.Position,
		ExecutionTime: outcome.Duration,
		ActualOutput:  outcome.Stdout,
		Error:         outcome.Stderr,
		Points:        tc.Points,
	}
	switch {
	case outcome.CompileFailed:
		result.Status = model.VerdictCompilationError
	case outcome.TimedOut:
		result.Status = model.VerdictTimeLimitExceeded
	case !outcome.Success && outcome.Stderr != "":
		result.Status = model.VerdictRuntimeError
	case !outcome.Success:
		result.Status = model.VerdictError
	case trimOutput(outcome.Stdout) == trimOutput(tc.ExpectedOutput):
		result.Status = model.VerdictAccepted
	default:
		result.Status = model.VerdictWrongAnswer
	}
	return result
}

// trimOutput normalizes line endings and strips surrounding whitespace;
// the comparison is trailing-whitespace-insensitive by contract.
func trimOutput(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}

func (j *CodeJudger) Close(ctx context.Context) error {
	return j.executor.Close(ctx)
}
