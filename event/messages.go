package event

// JudgeTaskMessage is the JSON payload enqueued on the judge task
// stream by the master and consumed by workers. Limit fields carry
// problem-level overrides; zero values mean "use the language default".
type JudgeTaskMessage struct {
	SubmissionID uint64 `json:"submission_id"`
	ProblemID    uint64 `json:"problem_id"`
	Code         string `json:"code"`
	Language     string `json:"language"`
	TimeLimit    int    `json:"time_limit,omitempty"`
	MemoryLimit  string `json:"memory_limit,omitempty"`
}

// TestCaseOutcome is one classified test case run inside a VerdictEvent.
type TestCaseOutcome struct {
	TestCaseID    uint64  `json:"test_case_id"`
	Position      int     `json:"position"`
	Status        string  `json:"status"`
	ExecutionTime float64 `json:"execution_time"`
	ActualOutput  string  `json:"actual_output"`
	Error         string  `json:"error,omitempty"`
	Points        int     `json:"points"`
}

// VerdictEvent is the JSON payload published on the judge result topic
// once a submission reaches a terminal state.
type VerdictEvent struct {
	SubmissionID     uint64            `json:"submission_id"`
	ProblemID        uint64            `json:"problem_id"`
	Status           string            `json:"status"`
	Score            float64           `json:"score"`
	PassedTests      int               `json:"passed_tests"`
	TotalTests       int               `json:"total_tests"`
	MaxTime          float64           `json:"max_time"`
	CompilationError string            `json:"compilation_error,omitempty"`
	RejectionReason  string            `json:"rejection_reason,omitempty"`
	TestResults      []TestCaseOutcome `json:"test_results"`
}
