package config

import (
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

type LoggerConfig struct {
	Development    bool                `yaml:"development"`
	Type           loggerv2.OutputType `yaml:"type"`
	LogFilePath    string              `yaml:"logFilePath"`
	AutoCreateFile bool                `yaml:"autoCreateFile"`
}

func (LoggerConfig) Key() string {
	return "log"
}

type DBConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DBName      string `yaml:"database"`
	TablePrefix string `yaml:"tablePrefix"`
	// Connection pool tuning; zero values fall back to defaults.
	MaxOpenConns    int `yaml:"maxOpenConns"`
	MaxIdleConns    int `yaml:"maxIdleConns"`
	ConnMaxLifetime int `yaml:"connMaxLifetime"` // minutes
	ConnMaxIdleTime int `yaml:"connMaxIdleTime"` // minutes
}

func (DBConfig) Key() string {
	return "db"
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"password"`
}

func (RedisConfig) Key() string {
	return "redis"
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
}

func (KafkaConfig) Key() string {
	return "kafka"
}

// JudgeConfig is the judging surface: limit defaults and overrides plus
// executor selection. RequireSandbox switches workers to the container
// backend; languages may be extended or retargeted per deployment.
type JudgeConfig struct {
	RequireSandbox               bool              `yaml:"requireSandbox"`
	ImageBuildRoot               string            `yaml:"imageBuildRoot"`
	DefaultTimeLimitSeconds      int               `yaml:"defaultTimeLimitSeconds"`
	DefaultMemoryLimit           string            `yaml:"defaultMemoryLimit"`
	DefaultCompileTimeoutSeconds int               `yaml:"defaultCompileTimeoutSeconds"`
	MaxSourceSizeBytes           int64             `yaml:"maxSourceSizeBytes"`
	MaxOutputSizeBytes           int64             `yaml:"maxOutputSizeBytes"`
	TimeLimitOverrides           map[string]int    `yaml:"timeLimitOverrides"`
	MemoryLimitOverrides         map[string]string `yaml:"memoryLimitOverrides"`
	Languages                    []LanguageConfig  `yaml:"languages"`
}

func (JudgeConfig) Key() string {
	return "judge"
}

// LanguageConfig adds or overrides one language runtime from config.
type LanguageConfig struct {
	ID             string   `yaml:"id"`
	Extension      string   `yaml:"extension"`
	SourceFileName string   `yaml:"sourceFileName"`
	CompileCommand []string `yaml:"compileCommand"`
	RunCommand     []string `yaml:"runCommand"`
	Image          string   `yaml:"image"`
	Interpreted    bool     `yaml:"interpreted"`
}
