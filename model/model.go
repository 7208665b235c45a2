package model

import "time"

// Verdict is the terminal classification of a submission or of a single
// test case run. PENDING and JUDGING are lifecycle states owned by the
// pipeline; everything else is terminal.
type Verdict string

const (
	VerdictPending           Verdict = "PENDING"
	VerdictJudging           Verdict = "JUDGING"
	VerdictAccepted          Verdict = "ACCEPTED"
	VerdictWrongAnswer       Verdict = "WRONG_ANSWER"
	VerdictTimeLimitExceeded Verdict = "TIME_LIMIT_EXCEEDED"
	VerdictCompilationError  Verdict = "COMPILATION_ERROR"
	VerdictRuntimeError      Verdict = "RUNTIME_ERROR"
	VerdictError             Verdict = "ERROR"
)

// Terminal reports whether v is a final state for a submission.
func (v Verdict) Terminal() bool {
	switch v {
	case VerdictAccepted, VerdictWrongAnswer, VerdictTimeLimitExceeded,
		VerdictCompilationError, VerdictRuntimeError, VerdictError:
		return true
	}
	return false
}

type Problem struct {
	ID uint64 `gorm:"primaryKey"`
	// TimeLimit and MemoryLimit override the language defaults when set.
	// TimeLimit is in seconds, MemoryLimit is a human string like "128m".
	TimeLimit   int    `gorm:"column:time_limit"`
	MemoryLimit string `gorm:"column:memory_limit"`
	// TestdataDir points at an on-disk N.in/N.out directory for problems
	// whose test cases are not stored in the database.
	TestdataDir string `gorm:"column:testdata_dir"`
}

type TestCase struct {
	ID             uint64 `gorm:"primaryKey"`
	ProblemID      uint64 `gorm:"column:problem_id;index"`
	Input          string `gorm:"column:input_data"`
	ExpectedOutput string `gorm:"column:expected_output"`
	Position       int    `gorm:"column:position"`
	IsSample       bool   `gorm:"column:is_sample"`
	Points         int    `gorm:"column:points"`
}

type Submission struct {
	ID               uint64  `gorm:"primaryKey"`
	UserID           uint64  `gorm:"column:user_id;index"`
	ProblemID        uint64  `gorm:"column:problem_id;index"`
	Code             string  `gorm:"column:code"`
	Language         string  `gorm:"column:language"`
	Status           Verdict `gorm:"column:status"`
	Score            float64 `gorm:"column:score"`
	PassedTestCases  int     `gorm:"column:passed_test_cases"`
	TotalTestCases   int     `gorm:"column:total_test_cases"`
	MaxExecutionTime float64 `gorm:"column:max_execution_time"`
	CompilationError string  `gorm:"column:compilation_error"`
	ErrorData        string  `gorm:"column:error_data"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type TestCaseResult struct {
	ID            uint64  `gorm:"primaryKey"`
	SubmissionID  uint64  `gorm:"column:submission_id;index"`
	TestCaseID    uint64  `gorm:"column:test_case_id"`
	Status        Verdict `gorm:"column:status"`
	ExecutionTime float64 `gorm:"column:execution_time"`
	ActualOutput  string  `gorm:"column:actual_output"`
	ErrorMessage  string  `gorm:"column:error_message"`
	CreatedAt     time.Time
}
