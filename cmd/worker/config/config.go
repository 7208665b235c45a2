package config

type JudgeWorkerConfig struct {
	TestcasePathPrefix       string `yaml:"testcasePathPrefix"`
	XAutoClaimTimeoutMinutes int    `yaml:"xAutoClaimTimeoutMinutes"`
}

func (JudgeWorkerConfig) Key() string {
	return "judgeWorker"
}
