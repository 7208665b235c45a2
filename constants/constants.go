package constants

const (
	// JudgeTaskStream is the Redis stream carrying judge tasks from the
	// master to the workers.
	JudgeTaskStream = "judge:task_stream"

	// SubmissionTopic carries submission-created events from the
	// application layer into the judging pipeline.
	SubmissionTopic = "edplatform_submissions"

	// JudgeResultTopic carries finished verdicts from workers to the
	// result collector.
	JudgeResultTopic = "edplatform_judge_results"
)
